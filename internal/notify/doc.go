// Package notify converts entity status changes into at-most-once user
// notifications.
//
// A Tracker keeps two indexes per tracked collection. The prior-status index
// records the last status observed for every entity id and is written on
// every observation, which makes re-processing the same batch a no-op. The
// pending-action index remembers entities the user explicitly acted on; the
// first transition out of an in-flight status consumes the entry and, when
// the new status is noteworthy, produces an actionable prompt that offers to
// switch the visible filter.
//
// Transitions between two unobserved intermediate states still surface as a
// single "last observed -> current" transition; the tracker never tries to
// reconstruct the path.
//
// The Center is a plain queue between the tracker goroutines (pollers,
// event stream) and the UI, which drains it once per render tick.
package notify
