package scenario

// Context is the context object of scenario machines. Flags drive guards,
// counters and history are written by calls.
type Context struct {
	Flags    map[string]bool
	Counters map[string]int
	History  []string
}

// Flag returns the value of a flag; unknown flags are false.
func (c *Context) Flag(name string) bool {
	return c.Flags[name]
}

// SetFlag sets a flag.
func (c *Context) SetFlag(name string, v bool) {
	if c.Flags == nil {
		c.Flags = make(map[string]bool)
	}
	c.Flags[name] = v
}

// SetCounter sets a counter.
func (c *Context) SetCounter(name string, v int) {
	if c.Counters == nil {
		c.Counters = make(map[string]int)
	}
	c.Counters[name] = v
}

// Inc increments a counter.
func (c *Context) Inc(name string) {
	if c.Counters == nil {
		c.Counters = make(map[string]int)
	}
	c.Counters[name]++
}

// Record appends a state to the history.
func (c *Context) Record(state string) {
	c.History = append(c.History, state)
}
