package physics

// CollisionCallback observes contacts during a step. Hooks run in
// registration order, once per manifold per step:
//
//	PreContact   geometry computed, may clear EnableResolveContact
//	PostContact  manifold accepted, geometry is read-only
//	PreSolve     before the impulse iterations, resolved manifolds only
//	PostSolve    after the iterations, impulses are available
//
// Listeners must not create or destroy bodies directly while the world is
// locked; CreateBody and DestroyBody queue the change until the step ends.
type CollisionCallback interface {
	PreContact(m *ContactManifold)
	PostContact(m *ContactManifold)
	PreSolve(m *ContactManifold)
	PostSolve(m *ContactManifold)
}

// CollisionCallbackFuncs adapts plain functions to CollisionCallback. Nil
// fields are skipped.
type CollisionCallbackFuncs struct {
	OnPreContact  func(m *ContactManifold)
	OnPostContact func(m *ContactManifold)
	OnPreSolve    func(m *ContactManifold)
	OnPostSolve   func(m *ContactManifold)
}

func (f *CollisionCallbackFuncs) PreContact(m *ContactManifold) {
	if f.OnPreContact != nil {
		f.OnPreContact(m)
	}
}

func (f *CollisionCallbackFuncs) PostContact(m *ContactManifold) {
	if f.OnPostContact != nil {
		f.OnPostContact(m)
	}
}

func (f *CollisionCallbackFuncs) PreSolve(m *ContactManifold) {
	if f.OnPreSolve != nil {
		f.OnPreSolve(m)
	}
}

func (f *CollisionCallbackFuncs) PostSolve(m *ContactManifold) {
	if f.OnPostSolve != nil {
		f.OnPostSolve(m)
	}
}

// AddCollisionCallback registers cb. Registering the same callback twice is
// a no-op.
func (w *World) AddCollisionCallback(cb CollisionCallback) {
	for _, existing := range w.callbacks {
		if existing == cb {
			return
		}
	}
	w.callbacks = append(w.callbacks, cb)
}

func (w *World) RemoveCollisionCallback(cb CollisionCallback) bool {
	for i, existing := range w.callbacks {
		if existing == cb {
			w.callbacks = append(w.callbacks[:i], w.callbacks[i+1:]...)
			return true
		}
	}
	return false
}

func (w *World) preContact(m *ContactManifold) {
	for _, cb := range w.callbacks {
		cb.PreContact(m)
	}
}

func (w *World) postContact(m *ContactManifold) {
	var snap geometry
	if debugChecks {
		snap = m.geometry()
	}
	for _, cb := range w.callbacks {
		cb.PostContact(m)
	}
	if debugChecks {
		invariant(snap == m.geometry(), "PostContact listener mutated manifold geometry")
	}
}

func (w *World) preSolve(m *ContactManifold) {
	for _, cb := range w.callbacks {
		cb.PreSolve(m)
	}
}

func (w *World) postSolve(m *ContactManifold) {
	var snap geometry
	if debugChecks {
		snap = m.geometry()
	}
	for _, cb := range w.callbacks {
		cb.PostSolve(m)
	}
	if debugChecks {
		invariant(snap == m.geometry(), "PostSolve listener mutated manifold geometry")
	}
}
