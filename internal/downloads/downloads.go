// Package downloads wraps a transfer engine with priority-based admission
// control and derived transfer states.
package downloads

import "time"

// EngineState is a transfer state as reported by the engine.
type EngineState string

const (
	EngineStopped     EngineState = "stopped"
	EngineStarting    EngineState = "starting"
	EngineHashing     EngineState = "hashing"
	EngineMetadata    EngineState = "metadata"
	EngineDownloading EngineState = "downloading"
	EngineSeeding     EngineState = "seeding"
	EnginePaused      EngineState = "paused"
	EngineError       EngineState = "error"
)

// EngineStatus is the engine's raw view of one transfer.
type EngineStatus struct {
	URI             string
	Name            string
	State           EngineState
	Error           string
	Progress        float64
	Peers           int
	Seeds           int
	Leeches         int
	OpenConnections int
	Size            int64
	Downloaded      int64
	Uploaded        int64
	DownSpeed       int64
	UpSpeed         int64
	Started         time.Time
	Files           []string
}

// TransferEngine is the torrent engine collaborator. Implementations are
// out of scope; OnChange callbacks arrive on engine goroutines.
type TransferEngine interface {
	Start(uri string, priority int) error
	Stop(uri string, deleteFiles, remove bool) (*EngineStatus, error)
	Restart(uri string, deleteTorrentFile bool) error
	HashCheck(uri string) error
	Status(uri string) (*EngineStatus, error)
	All() ([]EngineStatus, error)
	OnChange(fn func(EngineStatus))
}

// State is the derived transfer state exposed to the rest of the engine.
type State string

const (
	StateInitializing State = "initializing"
	StateStalled      State = "stalled"
	StateDownloading  State = "downloading"
	StateWaiting      State = "waiting"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
)

// stallAfter is how long a downloading transfer may sit with no peers and
// no open connections before it is considered stalled.
const stallAfter = 5 * time.Minute

// Info is the derived view of one transfer. Transient: never persisted.
type Info struct {
	URI             string
	Name            string
	State           State
	Progress        float64
	Peers           int
	Seeds           int
	Leeches         int
	OpenConnections int
	Size            int64
	Downloaded      int64
	Uploaded        int64
	DownSpeed       int64
	UpSpeed         int64
	Priority        int
	Started         time.Time
	Files           []string
}

// Complete reports whether the transfer has all its bytes.
func (i Info) Complete() bool { return i.State == StateCompleted }

// deriveState maps the engine's raw state to the derived one.
func deriveState(st EngineStatus, now time.Time) State {
	if st.State == EngineError || st.Error != "" {
		return StateFailed
	}
	switch st.State {
	case EngineStopped, EngineSeeding:
		if st.Progress >= 100 {
			return StateCompleted
		}
		return StateWaiting
	case EnginePaused:
		return StateWaiting
	case EngineStarting, EngineHashing, EngineMetadata:
		return StateInitializing
	case EngineDownloading:
		if st.Peers == 0 && st.OpenConnections == 0 &&
			!st.Started.IsZero() && now.Sub(st.Started) >= stallAfter {
			return StateStalled
		}
		return StateDownloading
	default:
		return StateWaiting
	}
}

func info(st EngineStatus, priority int, now time.Time) Info {
	return Info{
		URI:             st.URI,
		Name:            st.Name,
		State:           deriveState(st, now),
		Progress:        st.Progress,
		Peers:           st.Peers,
		Seeds:           st.Seeds,
		Leeches:         st.Leeches,
		OpenConnections: st.OpenConnections,
		Size:            st.Size,
		Downloaded:      st.Downloaded,
		Uploaded:        st.Uploaded,
		DownSpeed:       st.DownSpeed,
		UpSpeed:         st.UpSpeed,
		Priority:        priority,
		Started:         st.Started,
		Files:           st.Files,
	}
}
