package ts

import (
	"testing"

	"github.com/reactiveflow/tsgraph/engtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	times []engtime.Time
}

func (r *recorder) Notify(t engtime.Time) { r.times = append(r.times, t) }

func TestScalarChainTicksAtEachTime(t *testing.T) {
	// Two-node chain: A produces 1,2,3 at MIN_ST, MIN_ST+1, MIN_ST+2; B
	// multiplies by 10 and writes its own output each time A ticks.
	a := NewScalar[int]("a")
	b := NewScalar[int]("b")

	var seen []int
	a.Subscribe(SubscriberFunc(func(t engtime.Time) {
		b.ApplyResult(t, a.Value()*10)
		seen = append(seen, b.Value())
	}))

	start := engtime.Time(1000)
	a.ApplyResult(start, 1)
	a.ApplyResult(start+1, 2)
	a.ApplyResult(start+2, 3)

	assert.Equal(t, []int{10, 20, 30}, seen)
	assert.True(t, b.Modified(start+2))
	assert.Equal(t, start+2, b.LastModifiedTime())
}

func TestScalarMarkInvalidResetsValidity(t *testing.T) {
	s := NewScalar[int]("s")
	assert.False(t, s.Valid())
	s.ApplyResult(10, 5)
	assert.True(t, s.Valid())
	s.MarkInvalid(11)
	assert.False(t, s.Valid())
	assert.Equal(t, 0, s.Value())
}

func TestSetAddedRemovedCoalesceWithinCycle(t *testing.T) {
	s := NewSet[string]("s")
	// add then remove the same key in the same cycle coalesces to nothing.
	s.Add(5, "x")
	s.Remove(5, "x")
	assert.False(t, s.Contains("x"))
	assert.Empty(t, s.Added(5))
	assert.Empty(t, s.Removed(5))

	s.Add(6, "y")
	assert.True(t, s.WasAdded(6, "y"))
	s.Remove(7, "y")
	// removed in a later cycle: this cycle's removed set records it, not
	// the add cycle's.
	assert.Contains(t, s.Removed(7), "y")
	_, inAdded := s.Added(7)["y"]
	assert.False(t, inAdded)
}

func TestSetInvariantAddedRemovedDisjoint(t *testing.T) {
	s := NewSet[int]("s")
	s.Add(1, 1)
	s.Add(1, 2)
	s.Remove(1, 2)
	added := s.Added(1)
	removed := s.Removed(1)
	for k := range added {
		_, inRemoved := removed[k]
		assert.False(t, inRemoved)
	}
}

func TestDictAddModifyRemoveDeltas(t *testing.T) {
	// TSD add/remove/modify scenario: x added at t1, modified at t2,
	// removed (with y added) at t3.
	d := NewDict("d", func(key string) Output { return NewScalar[int]("d." + key) })

	t1, t2, t3 := engtime.Time(1), engtime.Time(2), engtime.Time(3)

	xOut := d.Put(t1, "x")
	xOut.(*Scalar[int]).ApplyResult(t1, 1)
	assert.Contains(t, d.AddedKeys(t1), "x")
	assert.Contains(t, d.ModifiedKeys(t1), "x")

	xOut2, _ := d.Get("x")
	xOut2.(*Scalar[int]).ApplyResult(t2, 2)
	assert.Empty(t, d.AddedKeys(t2))
	assert.Contains(t, d.ModifiedKeys(t2), "x")

	d.Remove(t3, "x")
	yOut := d.Put(t3, "y")
	yOut.(*Scalar[int]).ApplyResult(t3, 5)
	assert.Contains(t, d.RemovedKeys(t3), "x")
	assert.Contains(t, d.AddedKeys(t3), "y")
	assert.Contains(t, d.ModifiedKeys(t3), "y")
}

func TestDictKeyCannotBeBothAddedAndRemovedSameCycle(t *testing.T) {
	d := NewDict("d", func(key string) Output { return NewSignal("d." + key) })
	t1 := engtime.Time(1)
	d.Put(t1, "k")
	d.Remove(t1, "k")
	// add+remove of a brand new key within the same cycle coalesces to
	// nothing: never existed before, doesn't exist after.
	assert.NotContains(t, d.AddedKeys(t1), "k")
	assert.NotContains(t, d.RemovedKeys(t1), "k")
}

func TestDictRefCountingKeepsChildAliveUntilReleased(t *testing.T) {
	d := NewDict("d", func(key string) Output { return NewSignal("d." + key) })
	t1 := engtime.Time(1)
	out := d.GetRef(t1, "x")
	d.Remove(t1, "x")
	// still referenced: child output kept.
	_, ok := d.Get("x")
	assert.True(t, ok)
	assert.Same(t, out, mustGet(d, "x"))

	d.ReleaseRef("x")
	d.Remove(t1+1, "x")
	_, ok = d.Get("x")
	assert.False(t, ok)
}

func mustGet(d *Dict, key string) Output {
	o, _ := d.Get(key)
	return o
}

func TestBundleAggregatesChildValidity(t *testing.T) {
	bun := NewBundle("b", []string{"a", "b"})
	fa := NewScalar[int]("b.a")
	fb := NewScalar[int]("b.b")
	bun.SetField("a", fa)
	bun.SetField("b", fb)

	assert.False(t, bun.Valid())
	fa.ApplyResult(1, 10)
	assert.True(t, bun.Valid())
	assert.False(t, bun.AllValid())
	fb.ApplyResult(1, 20)
	assert.True(t, bun.AllValid())

	delta := bun.Delta(1)
	assert.Contains(t, delta, "a")
	assert.Contains(t, delta, "b")
}

func TestBundleNotifiesSubscribersOnceInCycle(t *testing.T) {
	bun := NewBundle("b", []string{"a", "b"})
	fa := NewScalar[int]("b.a")
	fb := NewScalar[int]("b.b")
	bun.SetField("a", fa)
	bun.SetField("b", fb)

	rec := &recorder{}
	bun.Subscribe(rec)

	fa.ApplyResult(5, 1)
	fb.ApplyResult(5, 2)

	assert.Len(t, rec.times, 1)
	assert.Equal(t, engtime.Time(5), rec.times[0])
}

func TestWindowCountBasedEviction(t *testing.T) {
	w := NewCountWindow[int]("w", 3, 2)
	assert.False(t, w.Valid())
	w.Push(1, 10)
	assert.False(t, w.Valid())
	w.Push(2, 20)
	assert.True(t, w.Valid())
	w.Push(3, 30)
	w.Push(4, 40)
	assert.Equal(t, []int{20, 30, 40}, w.Values())
}

func TestRefRebindNotifiesObservers(t *testing.T) {
	// Reference rebind scenario: R peers OutA=7 then rebinds to OutB=42.
	outA := NewScalar[int]("a")
	outB := NewScalar[int]("b")
	outA.ApplyResult(1, 7)
	outB.ApplyResult(1, 42)

	r := NewRef("r")
	rec := &recorder{}
	r.ObserveRebind(rec)

	r.Rebind(1, PeeredReference(outA))
	require.True(t, r.Value().IsPeered())
	assert.Same(t, outA, r.Value().Peer())

	r.Rebind(10, PeeredReference(outB))
	assert.Same(t, outB, r.Value().Peer())
	assert.Equal(t, []engtime.Time{1, 10}, rec.times)
}

func TestInputBindAndActivate(t *testing.T) {
	out := NewScalar[int]("o")
	owner := &recorder{}
	in := NewInput("n.in", owner)

	in.BindOutput(out)
	assert.False(t, in.IsActive())

	in.MakeActive()
	out.ApplyResult(1, 99)
	assert.Len(t, owner.times, 1)

	in.MakePassive()
	out.ApplyResult(2, 100)
	assert.Len(t, owner.times, 1)

	in.UnbindOutput()
	assert.Nil(t, in.Bound())
}
