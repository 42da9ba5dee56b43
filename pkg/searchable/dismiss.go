package searchable

// DismissSource emits outside-interaction events. Subscribe returns a cancel
// function; a cancelled subscription never fires again.
type DismissSource interface {
	Subscribe(fn func()) (cancel func())
}

// Interactions is an in-process DismissSource a form owns for its lifetime.
// Every interaction outside a searchable widget's bounds is reported through
// Notify and fans out to live subscribers.
type Interactions struct {
	next int
	subs map[int]func()
}

// NewInteractions builds an empty broadcaster.
func NewInteractions() *Interactions {
	return &Interactions{subs: make(map[int]func())}
}

// Subscribe registers fn and returns its cancel function.
func (i *Interactions) Subscribe(fn func()) func() {
	if i == nil || fn == nil {
		return func() {}
	}
	id := i.next
	i.next++
	i.subs[id] = fn
	return func() {
		delete(i.subs, id)
	}
}

// Notify reports one outside interaction to all live subscribers.
func (i *Interactions) Notify() {
	if i == nil {
		return
	}
	for _, fn := range i.subs {
		fn()
	}
}

// Len reports the number of live subscriptions; forms use it to verify that
// unmount released everything.
func (i *Interactions) Len() int {
	if i == nil {
		return 0
	}
	return len(i.subs)
}
