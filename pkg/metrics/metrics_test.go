package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

// value reads the current value of a counter or gauge.
func value(c prometheus.Metric) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return -1
	}
	if m.Counter != nil {
		return m.Counter.GetValue()
	}
	return m.Gauge.GetValue()
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created and registered", func() {
				So(manager, ShouldNotBeNil)
				manager.passes.WithLabelValues("resolved").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				So(families[0].GetName(), ShouldStartWith, "test_unit_")
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording a pass", func() {
			before := value(globalManager.passes.WithLabelValues("resolved"))
			RecordPass("resolved", 3.5)

			Convey("Then the outcome counter moves", func() {
				So(value(globalManager.passes.WithLabelValues("resolved")), ShouldEqual, before+1)
			})
		})

		Convey("When recording participants", func() {
			before := value(globalManager.participants.WithLabelValues("skipped"))
			RecordParticipants("skipped", 3)
			RecordParticipants("skipped", 0)
			So(value(globalManager.participants.WithLabelValues("skipped")), ShouldEqual, before+3)
		})

		Convey("When flipping gauges", func() {
			UpdateSheetsLatched(true)
			So(value(globalManager.sheetsLatched), ShouldEqual, 1)
			UpdateSheetsLatched(false)
			So(value(globalManager.sheetsLatched), ShouldEqual, 0)
			UpdateWorkerBusy(true)
			So(value(globalManager.workerBusy), ShouldEqual, 1)
			UpdateWorkerBusy(false)
		})

		Convey("When recording the remaining helpers", func() {
			So(func() {
				RecordPatchesApplied(2)
				UpdateDedupeSize(10)
				UpdateCorpusRecords(100)
				UpdateRosterParticipants(12)
				RecordTrigger("coalesced")
				UpdateQueueSize(1)
				RecordWorkerError()
				RecordParse("text", "ok", 6)
				RecordCacheOperation("put", "ok", 1.2)
				UpdateCacheRecords(100)
				RecordHTTPRequest("/v1/sets/parse", "POST", "200")
				RecordHTTPRequestDuration("/v1/sets/parse", "POST", "200", 4)
				RecordErrorByComponent("cache", "read")
			}, ShouldNotPanic)
		})

		Convey("Then the registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
