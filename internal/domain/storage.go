package domain

// Policy selects which backend serves which collection.
type Policy string

// List of backend-selection policies
const (
	PolicyLocal  Policy = "local"
	PolicyRemote Policy = "remote"
	PolicyHybrid Policy = "hybrid"
)

// Valid reports whether p is a known policy.
func (p Policy) Valid() bool {
	switch p {
	case PolicyLocal, PolicyRemote, PolicyHybrid:
		return true
	default:
		return false
	}
}

// SyncDirection is the direction of a people migration.
type SyncDirection string

// List of migration directions
const (
	LocalToRemote SyncDirection = "local-to-remote"
	RemoteToLocal SyncDirection = "remote-to-local"
)

// Valid reports whether d is a known direction.
func (d SyncDirection) Valid() bool {
	return d == LocalToRemote || d == RemoteToLocal
}

// SyncSummary is the outcome of a migration run.
type SyncSummary struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Settings is the singleton configuration document.
type Settings map[string]any

// Stats is a snapshot of collection counts.
type Stats struct {
	People struct {
		Total      int `json:"total"`
		Couriers   int `json:"couriers"`
		Passengers int `json:"passengers"`
	} `json:"people"`
	Shifts struct {
		Total   int `json:"total"`
		OnDate  int `json:"onDate"`
		Working int `json:"working"`
	} `json:"shifts"`
	Assignments struct {
		Total     int `json:"total"`
		OnDate    int `json:"onDate"`
		Completed int `json:"completed"`
	} `json:"assignments"`
	Branches int `json:"branches"`
}

// AvailablePerson is a person with an open shift on the queried date.
type AvailablePerson struct {
	Person Person `json:"person"`
	Shift  Shift  `json:"shift"`
}
