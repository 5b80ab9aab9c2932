package timing

// A Registration is the handle returned when a handler is added to a
// Dispatcher. Releasing it removes the handler.
type Registration struct {
	id         string
	channel    Channel
	handler    Handler
	dispatcher *Dispatcher
	released   bool
}

// ID returns the unique ID of the registration.
func (r *Registration) ID() string {
	return r.id
}

// Channel returns the channel the handler is registered on.
func (r *Registration) Channel() Channel {
	return r.channel
}

// Handler returns the registered handler.
func (r *Registration) Handler() Handler {
	return r.handler
}

// Active returns true if the handler is still registered.
func (r *Registration) Active() bool {
	return !r.released
}

// Release removes the handler from the dispatcher. Releasing twice does
// nothing.
func (r *Registration) Release() {
	if r.released {
		return
	}

	r.dispatcher.channels[r.channel].remove(r.handler)
}

// handlerSet keeps registrations in registration order with at most one
// registration per handler.
type handlerSet struct {
	list  []*Registration
	index map[Handler]*Registration
}

func newHandlerSet() *handlerSet {
	return &handlerSet{
		index: make(map[Handler]*Registration),
	}
}

func (s *handlerSet) add(reg *Registration) {
	s.remove(reg.handler)

	s.list = append(s.list, reg)
	s.index[reg.handler] = reg
}

func (s *handlerSet) remove(h Handler) bool {
	reg, found := s.index[h]
	if !found {
		return false
	}

	reg.released = true
	delete(s.index, h)

	for i, r := range s.list {
		if r == reg {
			s.list = append(s.list[:i:i], s.list[i+1:]...)
			break
		}
	}

	return true
}

func (s *handlerSet) contains(h Handler) bool {
	_, found := s.index[h]
	return found
}

func (s *handlerSet) snapshot() []*Registration {
	return s.list
}

func (s *handlerSet) clear() {
	for _, reg := range s.list {
		reg.released = true
	}

	s.list = nil
	s.index = make(map[Handler]*Registration)
}
