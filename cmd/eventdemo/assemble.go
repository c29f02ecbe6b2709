package main

import (
	"context"
	"fmt"

	"eventcore/internal/algorithms"
	"eventcore/internal/config"
	"eventcore/internal/domain"
	"eventcore/internal/eventalgorithm"
)

// boundAlgorithm is what every concrete algorithm constructor returns, as
// far as the demo cares: something whose Base can be closed on shutdown.
type boundAlgorithm interface {
	Base() *eventalgorithm.Base
}

func requiredParam(d config.Descriptor, name string) (algorithms.ParamBinding, error) {
	b, ok, err := d.Param(name)
	if err != nil {
		return algorithms.ParamBinding{}, err
	}
	if !ok {
		return algorithms.ParamBinding{}, fmt.Errorf("descriptor %s: parameter %s is required for %s", d.ID, name, d.Algorithm)
	}
	return b, nil
}

func optionalParam(d config.Descriptor, name string) (*algorithms.ParamBinding, error) {
	b, ok, err := d.Param(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func alarmValues(d config.Descriptor) ([]domain.Value, error) {
	out := make([]domain.Value, 0, len(d.AlarmValues))
	for i, lit := range d.AlarmValues {
		v, err := lit.Domain()
		if err != nil {
			return nil, fmt.Errorf("descriptor %s: alarmValues[%d]: %w", d.ID, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func alarmStrings(d config.Descriptor) ([]string, error) {
	values, err := alarmValues(d)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(values))
	for i, v := range values {
		s, err := v.CharacterString()
		if err != nil {
			return nil, fmt.Errorf("descriptor %s: alarmValues[%d]: %w", d.ID, i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// assembleAlgorithm builds and binds the algorithm a descriptor names.
// The demo assembler covers the variants whose parameters map directly
// from a descriptor file; the remaining variants (extended, buffer-ready,
// the bitstring and change-of-value criteria) need Go-level configuration
// and are bound programmatically instead.
func assembleAlgorithm(ctx context.Context, d config.Descriptor, cfg algorithms.Config) (boundAlgorithm, error) {
	monitored, ok := cfg.Store.GetObject(ctx, domain.ObjectID(d.MonitoredObject))
	if !ok {
		return nil, fmt.Errorf("descriptor %s: monitored object %q not found", d.ID, d.MonitoredObject)
	}
	cfg.MonitoredObject = monitored
	if d.MonitoringObject != "" {
		monitoring, ok := cfg.Store.GetObject(ctx, domain.ObjectID(d.MonitoringObject))
		if !ok {
			return nil, fmt.Errorf("descriptor %s: monitoring object %q not found", d.ID, d.MonitoringObject)
		}
		cfg.MonitoringObject = monitoring
	}
	cfg.MessageTemplates = d.Templates()

	inhibit, err := optionalParam(d, "pEventAlgorithmInhibit")
	if err != nil {
		return nil, err
	}
	cfg.Inhibit = inhibit
	detection, err := optionalParam(d, "eventDetectionEnable")
	if err != nil {
		return nil, err
	}
	cfg.DetectionEnabled = detection

	switch d.Algorithm {
	case "out-of-range", "double-out-of-range", "signed-out-of-range", "unsigned-out-of-range":
		mv, err := requiredParam(d, "pMonitoredValue")
		if err != nil {
			return nil, err
		}
		low, err := requiredParam(d, "pLowLimit")
		if err != nil {
			return nil, err
		}
		high, err := requiredParam(d, "pHighLimit")
		if err != nil {
			return nil, err
		}
		deadband, err := requiredParam(d, "pDeadband")
		if err != nil {
			return nil, err
		}
		highEnable, err := optionalParam(d, "pLimitEnable.high")
		if err != nil {
			return nil, err
		}
		lowEnable, err := optionalParam(d, "pLimitEnable.low")
		if err != nil {
			return nil, err
		}
		switch d.Algorithm {
		case "double-out-of-range":
			return algorithms.NewDoubleOutOfRange(ctx, d.ID, cfg, algorithms.DoubleOutOfRangeConfig{
				MonitoredValue: mv, LowLimit: low, HighLimit: high, Deadband: deadband,
				HighLimitEnable: highEnable, LowLimitEnable: lowEnable,
			})
		case "signed-out-of-range":
			return algorithms.NewSignedOutOfRange(ctx, d.ID, cfg, algorithms.SignedOutOfRangeConfig{
				MonitoredValue: mv, LowLimit: low, HighLimit: high, Deadband: deadband,
				HighLimitEnable: highEnable, LowLimitEnable: lowEnable,
			})
		case "unsigned-out-of-range":
			return algorithms.NewUnsignedOutOfRange(ctx, d.ID, cfg, algorithms.UnsignedOutOfRangeConfig{
				MonitoredValue: mv, LowLimit: low, HighLimit: high, Deadband: deadband,
				HighLimitEnable: highEnable, LowLimitEnable: lowEnable,
			})
		default:
			return algorithms.NewOutOfRange(ctx, d.ID, cfg, algorithms.OutOfRangeConfig{
				MonitoredValue: mv, LowLimit: low, HighLimit: high, Deadband: deadband,
				HighLimitEnable: highEnable, LowLimitEnable: lowEnable,
			})
		}

	case "unsigned-range":
		mv, err := requiredParam(d, "pMonitoredValue")
		if err != nil {
			return nil, err
		}
		low, err := requiredParam(d, "pLowLimit")
		if err != nil {
			return nil, err
		}
		high, err := requiredParam(d, "pHighLimit")
		if err != nil {
			return nil, err
		}
		return algorithms.NewUnsignedRange(ctx, d.ID, cfg, algorithms.UnsignedRangeConfig{
			MonitoredValue: mv, LowLimit: low, HighLimit: high,
		})

	case "floating-limit":
		mv, err := requiredParam(d, "pMonitoredValue")
		if err != nil {
			return nil, err
		}
		setpoint, err := requiredParam(d, "pSetpoint")
		if err != nil {
			return nil, err
		}
		highDiff, err := requiredParam(d, "pHighDiffLimit")
		if err != nil {
			return nil, err
		}
		lowDiff, err := optionalParam(d, "pLowDiffLimit")
		if err != nil {
			return nil, err
		}
		deadband, err := requiredParam(d, "pDeadband")
		if err != nil {
			return nil, err
		}
		return algorithms.NewFloatingLimit(ctx, d.ID, cfg, algorithms.FloatingLimitConfig{
			MonitoredValue: mv, Setpoint: setpoint, HighDiffLimit: highDiff,
			LowDiffLimit: lowDiff, Deadband: deadband,
		})

	case "change-of-state":
		mv, err := requiredParam(d, "pMonitoredValue")
		if err != nil {
			return nil, err
		}
		values, err := alarmValues(d)
		if err != nil {
			return nil, err
		}
		return algorithms.NewChangeOfState(ctx, d.ID, cfg, algorithms.ChangeOfStateConfig{
			MonitoredValue: mv, AlarmValues: values,
		})

	case "change-of-character-string":
		mv, err := requiredParam(d, "pMonitoredValue")
		if err != nil {
			return nil, err
		}
		values, err := alarmStrings(d)
		if err != nil {
			return nil, err
		}
		return algorithms.NewChangeOfCharacterString(ctx, d.ID, cfg, algorithms.ChangeOfCharacterStringConfig{
			MonitoredValue: mv, AlarmValues: values,
		})

	case "change-of-discrete-value":
		mv, err := requiredParam(d, "pMonitoredValue")
		if err != nil {
			return nil, err
		}
		return algorithms.NewChangeOfDiscreteValue(ctx, d.ID, cfg, algorithms.ChangeOfDiscreteValueConfig{
			MonitoredValue: mv,
		})

	case "command-failure":
		mv, err := requiredParam(d, "pMonitoredValue")
		if err != nil {
			return nil, err
		}
		fb, err := requiredParam(d, "pFeedbackValue")
		if err != nil {
			return nil, err
		}
		return algorithms.NewCommandFailure(ctx, d.ID, cfg, algorithms.CommandFailureConfig{
			MonitoredValue: mv, FeedbackValue: fb,
		})

	case "none":
		return algorithms.NewNone(ctx, d.ID, cfg)

	default:
		return nil, fmt.Errorf("descriptor %s: algorithm %s is not assemblable from a descriptor file", d.ID, d.Algorithm)
	}
}
