package shader

// uniformCache maps uniform names to locations for one program id.
// Missing uniforms are stored as -1 so the driver is asked once per name.
type uniformCache struct {
	program   uint32
	locations map[string]int32
}

func newUniformCache() *uniformCache {
	return &uniformCache{locations: make(map[string]int32)}
}

// reset drops every location and rebinds the cache to program.
func (c *uniformCache) reset(program uint32) {
	c.program = program
	clear(c.locations)
}

// lookup returns the cached location and whether name was resolved before.
func (c *uniformCache) lookup(name string) (int32, bool) {
	loc, ok := c.locations[name]
	return loc, ok
}

func (c *uniformCache) store(name string, loc int32) {
	c.locations[name] = loc
}
