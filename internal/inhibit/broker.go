package inhibit

// Reason is the human-readable reason attached to every lease.
const Reason = "Inhibit by Caffeine"

// Broker is the session inhibitor service. Every method returns at once; done
// is invoked later on the goroutine that owns the Manager.
type Broker interface {
	// Attach routes the service's global notifications to s.
	Attach(s Signals)
	// Inhibit acquires a lease for holder and reports its cookie.
	Inhibit(holder Holder, done func(cookie uint32, err error))
	// Uninhibit releases the lease identified by cookie.
	Uninhibit(cookie uint32, done func(err error))
	// Owner resolves the application ID a lease was taken under.
	Owner(p Path, done func(appID string, err error))
	// List reports every lease the service currently holds, from any client.
	List(done func(paths []Path, err error))
}

// Signals is implemented by whoever receives the broker's global
// notifications. The Manager satisfies it.
type Signals interface {
	LeaseAdded(p Path)
	LeaseRemoved(p Path)
	ServiceReset()
}
