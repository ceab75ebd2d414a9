package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// CloneMacrocycles returns a structural deep copy of the given subtree with
// every entity id reassigned. This is an explicit walk rather than a
// serialize/deserialize round-trip: identity reassignment is the point, so
// two instantiations of the same template share zero ids.
func CloneMacrocycles(src []Macrocycle) []Macrocycle {
	out := make([]Macrocycle, len(src))
	for i, m := range src {
		out[i] = Macrocycle{
			ID:         primitive.NewObjectID(),
			Name:       m.Name,
			OrderIndex: m.OrderIndex,
			Mesocycles: cloneMesocycles(m.Mesocycles),
		}
	}
	return out
}

func cloneMesocycles(src []Mesocycle) []Mesocycle {
	out := make([]Mesocycle, len(src))
	for i, m := range src {
		out[i] = Mesocycle{
			ID:         primitive.NewObjectID(),
			Name:       m.Name,
			Goal:       m.Goal,
			CustomGoal: m.CustomGoal,
			OrderIndex: m.OrderIndex,
			Weeks:      cloneWeeks(m.Weeks),
		}
	}
	return out
}

func cloneWeeks(src []ProgramWeek) []ProgramWeek {
	out := make([]ProgramWeek, len(src))
	for i, w := range src {
		var variant *WeekVariant
		if w.Variant != nil {
			v := *w.Variant
			variant = &v
		}
		out[i] = ProgramWeek{
			ID:         primitive.NewObjectID(),
			Name:       w.Name,
			Variant:    variant,
			OrderIndex: w.OrderIndex,
			Sessions:   cloneSessions(w.Sessions, true),
		}
	}
	return out
}

func cloneSessions(src []Session, freshIDs bool) []Session {
	out := make([]Session, len(src))
	for i, s := range src {
		out[i] = cloneSession(s, freshIDs)
	}
	return out
}

func cloneSession(s Session, freshIDs bool) Session {
	c := s
	if freshIDs {
		c.ID = primitive.NewObjectID()
	}
	if s.DayOfWeek != nil {
		d := *s.DayOfWeek
		c.DayOfWeek = &d
	}
	c.Warmup = cloneExercises(s.Warmup, freshIDs)
	c.Exercises = cloneExercises(s.Exercises, freshIDs)
	return c
}

func cloneExercises(src []Exercise, freshIDs bool) []Exercise {
	out := make([]Exercise, len(src))
	for i, e := range src {
		c := e
		if freshIDs {
			c.ID = primitive.NewObjectID()
		}
		c.Sets = cloneSets(e.Sets, freshIDs)
		out[i] = c
	}
	return out
}

func cloneSets(src []Set, freshIDs bool) []Set {
	out := make([]Set, len(src))
	for i, s := range src {
		c := s
		if freshIDs {
			c.ID = primitive.NewObjectID()
		}
		if s.TargetRPE != nil {
			v := *s.TargetRPE
			c.TargetRPE = &v
		}
		if s.TargetRIR != nil {
			v := *s.TargetRIR
			c.TargetRIR = &v
		}
		out[i] = c
	}
	return out
}

// Snapshot returns a value copy of the session that keeps the original ids.
// Used when a workout starts: the snapshot is owned by the ongoing workout,
// so later edits or deletes of the plan cannot corrupt it.
func (s Session) Snapshot() Session {
	return cloneSession(s, false)
}
