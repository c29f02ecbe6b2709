package objectstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"eventcore/internal/domain"
)

// HTTPStore resolves objects against a remote object/property service,
// for the case where a monitored point lives on another device. Writes
// through any property it returns are rejected — parameter bindings are
// read-only — and change delivery is degraded-fidelity: it
// polls on an interval rather than receiving a push, since there is no
// wire-level subscription protocol in scope for this core.
type HTTPStore struct {
	client       *resty.Client
	baseURL      string
	pollInterval time.Duration
}

// NewHTTPStore creates an HTTPStore against baseURL. pollInterval defaults
// to one second when zero or negative.
func NewHTTPStore(baseURL string, pollInterval time.Duration) *HTTPStore {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &HTTPStore{
		client:       resty.New().SetBaseURL(baseURL).SetTimeout(10 * time.Second),
		baseURL:      baseURL,
		pollInterval: pollInterval,
	}
}

// wireValue is the JSON representation exchanged with the remote service:
// a kind tag plus exactly one populated payload field.
type wireValue struct {
	Kind     domain.Kind `json:"kind"`
	Real     *float64    `json:"real,omitempty"`
	Unsigned *uint64     `json:"unsigned,omitempty"`
	Signed   *int64      `json:"signed,omitempty"`
	Bits     []bool      `json:"bits,omitempty"`
	Enum     *uint32     `json:"enum,omitempty"`
	Str      *string     `json:"str,omitempty"`
	Boolean  *bool       `json:"boolean,omitempty"`
}

func encodeValue(v domain.Value) (wireValue, error) {
	w := wireValue{Kind: v.Kind}
	switch v.Kind {
	case domain.KindReal, domain.KindDouble:
		r, err := v.Real()
		if err != nil {
			return w, err
		}
		w.Real = &r
	case domain.KindUnsigned:
		u, err := v.Unsigned()
		if err != nil {
			return w, err
		}
		w.Unsigned = &u
	case domain.KindSignedInteger:
		s, err := v.Signed()
		if err != nil {
			return w, err
		}
		w.Signed = &s
	case domain.KindBitstring:
		b, err := v.Bitstring()
		if err != nil {
			return w, err
		}
		w.Bits = b
	case domain.KindEnumerated:
		e, err := v.Enumerated()
		if err != nil {
			return w, err
		}
		w.Enum = &e
	case domain.KindCharacterString:
		s, err := v.CharacterString()
		if err != nil {
			return w, err
		}
		w.Str = &s
	case domain.KindBoolean:
		b, err := v.Boolean()
		if err != nil {
			return w, err
		}
		w.Boolean = &b
	default:
		return w, fmt.Errorf("objectstore: unknown value kind %q", v.Kind)
	}
	return w, nil
}

func decodeValue(w wireValue) (domain.Value, error) {
	switch w.Kind {
	case domain.KindReal:
		if w.Real == nil {
			return domain.Value{}, fmt.Errorf("objectstore: real value missing payload")
		}
		return domain.RealValue(*w.Real), nil
	case domain.KindDouble:
		if w.Real == nil {
			return domain.Value{}, fmt.Errorf("objectstore: double value missing payload")
		}
		return domain.DoubleValue(*w.Real), nil
	case domain.KindUnsigned:
		if w.Unsigned == nil {
			return domain.Value{}, fmt.Errorf("objectstore: unsigned value missing payload")
		}
		return domain.UnsignedValue(*w.Unsigned), nil
	case domain.KindSignedInteger:
		if w.Signed == nil {
			return domain.Value{}, fmt.Errorf("objectstore: signed value missing payload")
		}
		return domain.SignedValue(*w.Signed), nil
	case domain.KindBitstring:
		return domain.BitstringValue(w.Bits), nil
	case domain.KindEnumerated:
		if w.Enum == nil {
			return domain.Value{}, fmt.Errorf("objectstore: enumerated value missing payload")
		}
		return domain.EnumeratedValue(*w.Enum), nil
	case domain.KindCharacterString:
		if w.Str == nil {
			return domain.Value{}, fmt.Errorf("objectstore: character-string value missing payload")
		}
		return domain.CharacterStringValue(*w.Str), nil
	case domain.KindBoolean:
		if w.Boolean == nil {
			return domain.Value{}, fmt.Errorf("objectstore: boolean value missing payload")
		}
		return domain.BooleanValue(*w.Boolean), nil
	default:
		return domain.Value{}, fmt.Errorf("objectstore: unknown wire value kind %q", w.Kind)
	}
}

// errReadOnly is returned by every write attempt through an HTTPStore
// property: bindings never write back to their source.
var errReadOnly = fmt.Errorf("objectstore: remote properties are read-only")

func (s *HTTPStore) GetObject(ctx context.Context, id domain.ObjectID) (domain.Object, bool) {
	resp, err := s.client.R().SetContext(ctx).Get("/objects/" + string(id))
	if err != nil || resp.IsError() {
		return nil, false
	}
	return &httpObject{id: id, store: s}, true
}

type httpObject struct {
	id    domain.ObjectID
	store *HTTPStore
}

func (o *httpObject) ID() domain.ObjectID { return o.id }

// Property always succeeds optimistically: existence of a specific
// property is only confirmed on first Get, matching a remote service where
// listing every property up front would cost an extra round trip this
// adapter has no need to pay.
func (o *httpObject) Property(id domain.PropertyID) (domain.PropertyCell, bool) {
	return &httpCell{object: o.id, property: id, store: o.store}, true
}

type httpCell struct {
	object   domain.ObjectID
	property domain.PropertyID
	store    *HTTPStore

	mu        sync.Mutex
	lastKnown domain.Value
	known     bool
	cancels   []context.CancelFunc
}

func (c *httpCell) path() string {
	return fmt.Sprintf("/objects/%s/properties/%s", c.object, c.property)
}

func (c *httpCell) Get(ctx context.Context) (domain.Value, error) {
	var w wireValue
	resp, err := c.store.client.R().SetContext(ctx).SetResult(&w).Get(c.path())
	if err != nil {
		return domain.Value{}, fmt.Errorf("objectstore: get %s: %w", c.path(), err)
	}
	if resp.IsError() {
		return domain.Value{}, fmt.Errorf("objectstore: get %s: remote status %d", c.path(), resp.StatusCode())
	}
	return decodeValue(w)
}

func (c *httpCell) Set(ctx context.Context, v domain.Value) error {
	return errReadOnly
}

// AddMonitor starts a polling goroutine that calls Get on the store's
// configured interval and fires fn when the decoded value differs from the
// last observed one. The returned Unsubscribe stops the goroutine.
func (c *httpCell) AddMonitor(fn func(old, new domain.Value)) domain.Unsubscribe {
	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.cancels = append(c.cancels, cancel)
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.store.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				v, err := c.Get(ctx)
				if err != nil {
					continue
				}
				c.mu.Lock()
				old := c.lastKnown
				firstObservation := !c.known
				changed := firstObservation || !old.Equal(v)
				c.lastKnown = v
				c.known = true
				c.mu.Unlock()
				if changed && !firstObservation {
					fn(old, v)
				}
			}
		}
	}()

	return func() { cancel() }
}
