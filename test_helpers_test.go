package metrics

// test helper: read the descriptor stored under the compound key "typ:name".
// Placed in a _test.go file so it is test-only and not part of the public API.
func metaLoad(p *BasicProvider, t InstrumentType, name string) (*Desc, bool) {
	key := NewInstrumentKey(t, name)
	v, ok := p.meta.Load(key)
	if !ok {
		return nil, false
	}
	desc, ok := v.(*Desc)
	return desc, ok
}
