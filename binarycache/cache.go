package binarycache

// ActionKey is the content-addressed key a binary-cache provider looks
// entries up by -- an install action's package_abi (§4.7, §4.8).
type ActionKey string

// Availability is what a provider's Precheck reports for one key.
type Availability int

const (
	AvailabilityUnknown Availability = iota
	AvailabilityAvailable
	AvailabilityUnavailable
)

// Provider is a pluggable binary-cache backend (HTTP, NuGet, cloud blob
// store, ...). Only the precheck/fetch/store contract the core needs is
// specified here; concrete transports are out of scope (§1). This is the
// one place in the module that keeps a behavior interface for runtime
// polymorphism rather than a closed tagged enum, per §9's guidance that
// user-pluggable binary-cache providers are the exception to "prefer
// tagged enums."
type Provider interface {
	Name() string

	// Precheck reports availability for each key, in the same order,
	// with no side effects on disk other than provider-local state
	// (§4.8). Parallelizable across providers and safe to call more than
	// once per key.
	Precheck(keys []ActionKey) ([]Availability, error)

	// Restore attempts to materialize each key's build output locally,
	// returning per-key success in the same order.
	Restore(keys []ActionKey) ([]bool, error)

	// Push uploads a completed build's artifact for key. Non-fatal on
	// failure: the executor already has the build result either way.
	// Takes the artifact as a byte slice (rather than a stream) so the
	// same bytes can be offered to every upload-backed provider in turn.
	Push(key ActionKey, artifact []byte) error
}

// Cache fans precheck/fetch/push calls out across an ordered list of
// providers, tracking one Status per action key so repeated calls never
// redo work a provider has already settled (§4.8).
type Cache struct {
	providers []Provider
	statuses  map[ActionKey]*Status
}

// New builds a Cache backed by providers, consulted in the given order:
// the first provider to report an action Available wins it, matching the
// teacher's ordered-source-list precedence in source_manager.go.
func New(providers ...Provider) *Cache {
	return &Cache{providers: providers, statuses: make(map[ActionKey]*Status)}
}

func (c *Cache) statusFor(key ActionKey) *Status {
	s, ok := c.statuses[key]
	if !ok {
		s = &Status{}
		c.statuses[key] = s
	}
	return s
}

// Status returns the current cache-status for key, creating a fresh
// StateUnknown entry if key hasn't been seen before.
func (c *Cache) Status(key ActionKey) *Status { return c.statusFor(key) }

// Precheck asks every provider, in order, whether it has an entry for
// each key that is still in StateUnknown (§4.8 should_attempt_precheck).
// A key a provider reports Available stops being offered to later
// providers; keys nobody has seen yet by the end of one provider's
// response are still considered by the next.
func (c *Cache) Precheck(keys []ActionKey) error {
	for _, p := range c.providers {
		var pending []ActionKey
		for _, k := range keys {
			if c.statusFor(k).ShouldAttemptPrecheck() {
				pending = append(pending, k)
			}
		}
		if len(pending) == 0 {
			return nil
		}
		avail, err := p.Precheck(pending)
		if err != nil {
			return err
		}
		for i, k := range pending {
			st := c.statusFor(k)
			switch avail[i] {
			case AvailabilityAvailable:
				st.MarkAvailable(p.Name())
			case AvailabilityUnavailable:
				st.MarkUnavailable()
			}
		}
	}
	return nil
}

// Fetch runs Precheck, then attempts Restore for every key still eligible
// (§4.8: "for actions whose status is Available, attempt restore; on
// success, skip build"), returning which keys actually restored.
func (c *Cache) Fetch(keys []ActionKey) (map[ActionKey]bool, error) {
	if err := c.Precheck(keys); err != nil {
		return nil, err
	}

	results := make(map[ActionKey]bool, len(keys))
	for _, p := range c.providers {
		var attempt []ActionKey
		for _, k := range keys {
			if !results[k] && c.statusFor(k).ShouldAttemptRestore() {
				attempt = append(attempt, k)
			}
		}
		if len(attempt) == 0 {
			continue
		}
		restored, err := p.Restore(attempt)
		if err != nil {
			return nil, err
		}
		for i, k := range attempt {
			if restored[i] {
				c.statusFor(k).MarkRestored()
				results[k] = true
			} else {
				c.statusFor(k).MarkUnavailable()
			}
		}
	}
	return results, nil
}

// Push offers a freshly built artifact to every provider, collecting
// (rather than aborting on) per-provider errors -- cache pushes are
// never fatal to the build that produced the artifact (§4.8, §7).
func (c *Cache) Push(key ActionKey, artifact []byte) []error {
	var errs []error
	for _, p := range c.providers {
		if err := p.Push(key, artifact); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
