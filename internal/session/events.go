package session

import "sync"

// Property names an observable field of the session
type Property int

const (
	PropFileName Property = iota
	PropValid
	PropCanInstall
	PropPackageName
	PropVersion
	PropMaintainer
	PropDescription
	PropHomepage
	PropInstalledSize
	PropInstalledVersion
	PropIsInstalled
	PropStatus
	PropStatusMessage
	PropStatusDetails
	PropPreInstallMessage
	// PropInstallStarted asks the UI to switch to its install view
	PropInstallStarted
)

var propertyNames = map[Property]string{
	PropFileName:          "fileName",
	PropValid:             "valid",
	PropCanInstall:        "canInstall",
	PropPackageName:       "packageName",
	PropVersion:           "version",
	PropMaintainer:        "maintainer",
	PropDescription:       "description",
	PropHomepage:          "homePage",
	PropInstalledSize:     "installedSize",
	PropInstalledVersion:  "installedVersion",
	PropIsInstalled:       "isInstalled",
	PropStatus:            "status",
	PropStatusMessage:     "statusMessage",
	PropStatusDetails:     "statusDetails",
	PropPreInstallMessage: "preInstallMessage",
	PropInstallStarted:    "installStarted",
}

// String returns the property name
func (p Property) String() string {
	if name, ok := propertyNames[p]; ok {
		return name
	}
	return "unknown"
}

// Event reports that a property changed. State is a snapshot taken right
// after the change. For PropStatusDetails, Output holds the appended text.
type Event struct {
	Property Property
	State    State
	Output   string
}

// subscriber buffers events without bound so emitters never block on a slow reader
type subscriber struct {
	mu     sync.Mutex
	queue  []Event
	notify chan struct{}
	out    chan Event
	done   chan struct{}
	once   sync.Once
}

func newSubscriber() *subscriber {
	sub := &subscriber{
		notify: make(chan struct{}, 1),
		out:    make(chan Event),
		done:   make(chan struct{}),
	}
	go sub.pump()
	return sub
}

func (sub *subscriber) push(e Event) {
	sub.mu.Lock()
	sub.queue = append(sub.queue, e)
	sub.mu.Unlock()

	select {
	case sub.notify <- struct{}{}:
	default:
	}
}

func (sub *subscriber) pump() {
	defer close(sub.out)

	for {
		sub.mu.Lock()
		if len(sub.queue) == 0 {
			sub.mu.Unlock()
			select {
			case <-sub.notify:
				continue
			case <-sub.done:
				return
			}
		}
		e := sub.queue[0]
		sub.queue[0] = Event{}
		sub.queue = sub.queue[1:]
		sub.mu.Unlock()

		select {
		case sub.out <- e:
		case <-sub.done:
			return
		}
	}
}

func (sub *subscriber) close() {
	sub.once.Do(func() { close(sub.done) })
}
