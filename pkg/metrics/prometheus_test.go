package metrics

import (
	"testing"

	"github.com/kirsrus/liftmon/model"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveBatch(t *testing.T) {
	critical := AnomaliesDetected.WithLabelValues(string(model.LevelCritical), string(model.KindSystem))
	warning := AnomaliesDetected.WithLabelValues(string(model.LevelWarning), string(model.KindParameter))
	beforeCritical := testutil.ToFloat64(critical)
	beforeWarning := testutil.ToFloat64(warning)

	ObserveBatch([]model.AnomalyRecord{
		{Kind: model.KindSystem, Level: model.LevelCritical},
		{Kind: model.KindParameter, Level: model.LevelWarning},
		{Kind: model.KindParameter, Level: model.LevelWarning},
	})

	if got := testutil.ToFloat64(critical) - beforeCritical; got != 1 {
		t.Errorf("критических учтено %v, want 1", got)
	}
	if got := testutil.ToFloat64(warning) - beforeWarning; got != 2 {
		t.Errorf("предупреждений учтено %v, want 2", got)
	}
}
