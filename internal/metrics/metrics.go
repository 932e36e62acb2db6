package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewNotifyRetriesTotal counts repeated attempts to hand a notification to the gateway
func NewNotifyRetriesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notify_gateway_retries_total",
		Help: "Total number of retried notification gateway calls",
	})
}

// NewDegradedWritesTotal counts local document writes that went through without the file lock
func NewDegradedWritesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storage_degraded_writes_total",
		Help: "Total number of local store writes persisted without acquiring the file lock",
	})
}

// NewNotificationsTotal counts notification deliveries by result (sent, failed, dropped)
func NewNotificationsTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Total number of notifications handled, by result",
	}, []string{"result"})
}

// NewSyncRecordsTotal counts migrated people records by direction and result
func NewSyncRecordsTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_records_total",
		Help: "Total number of people records processed by migrations",
	}, []string{"direction", "result"})
}

// NewShiftsResetTotal counts shifts removed by the daily reset
func NewShiftsResetTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shifts_reset_total",
		Help: "Total number of shifts removed by daily resets",
	})
}

// Set groups the collectors the service registers.
type Set struct {
	NotifyRetries  prometheus.Counter
	DegradedWrites prometheus.Counter
	Notifications  *prometheus.CounterVec
	SyncRecords    *prometheus.CounterVec
	ShiftsReset    prometheus.Counter
}

// NewSet creates every collector and registers it with reg.
func NewSet(reg prometheus.Registerer) (*Set, error) {
	s := &Set{
		NotifyRetries:  NewNotifyRetriesTotal(),
		DegradedWrites: NewDegradedWritesTotal(),
		Notifications:  NewNotificationsTotal(),
		SyncRecords:    NewSyncRecordsTotal(),
		ShiftsReset:    NewShiftsResetTotal(),
	}
	for _, c := range []prometheus.Collector{s.NotifyRetries, s.DegradedWrites, s.Notifications, s.SyncRecords, s.ShiftsReset} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}
