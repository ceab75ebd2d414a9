package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Tree errors ---
var (
	ErrNodeNotFound     = errors.New("program node not found")
	ErrVariantsDisabled = errors.New("week variants require ABCD periodization to be enabled")
	ErrInvalidVariant   = errors.New("week variant must be one of A, B, C, D")
	ErrProgramComplex   = errors.New("program structure is complex and cannot be simplified")
	ErrIndexOutOfRange  = errors.New("reorder index out of range")
)

// MesocycleGoal classifies the training emphasis of a mesocycle.
type MesocycleGoal string

const (
	GoalAccumulation    MesocycleGoal = "accumulation"
	GoalIntensification MesocycleGoal = "intensification"
	GoalRealization     MesocycleGoal = "realization"
	GoalDeload          MesocycleGoal = "deload"
	GoalCustom          MesocycleGoal = "custom" // free-text goal carried in Mesocycle.CustomGoal
)

// WeekVariant labels a week within an A/B/C/D periodization rotation.
type WeekVariant string

const (
	VariantA WeekVariant = "A"
	VariantB WeekVariant = "B"
	VariantC WeekVariant = "C"
	VariantD WeekVariant = "D"
)

// Valid reports whether v is one of the four defined variants.
func (v WeekVariant) Valid() bool {
	switch v {
	case VariantA, VariantB, VariantC, VariantD:
		return true
	}
	return false
}

// TrainingMode describes how the sets of a planned exercise are executed.
type TrainingMode string

const (
	ModeStandard TrainingMode = "standard"
	ModeSuperset TrainingMode = "superset"
	ModeCircuit  TrainingMode = "circuit"
)

// Program is the root of the periodization tree. The whole tree is embedded
// in one document; mutations go through the methods below so sibling
// orderIndex values stay a contiguous 0..n-1 permutation.
type Program struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID           primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	Name              string             `bson:"name" json:"name"`
	Description       string             `bson:"description,omitempty" json:"description,omitempty"`
	PeriodizationABCD bool               `bson:"periodizationAbcd" json:"periodizationAbcd"`
	Complex           bool               `bson:"complex" json:"complex"` // editor shows the full macro/meso hierarchy
	Macrocycles       []Macrocycle       `bson:"macrocycles" json:"macrocycles"`
	DeletedAt         *time.Time         `bson:"deletedAt,omitempty" json:"-"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Macrocycle is the coarsest periodization level.
type Macrocycle struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	Name       string             `bson:"name" json:"name"`
	OrderIndex int                `bson:"orderIndex" json:"orderIndex"`
	Mesocycles []Mesocycle        `bson:"mesocycles" json:"mesocycles"`
}

// Mesocycle groups weeks under one training goal.
type Mesocycle struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Goal       MesocycleGoal      `bson:"goal" json:"goal"`
	CustomGoal string             `bson:"customGoal,omitempty" json:"customGoal,omitempty"`
	OrderIndex int                `bson:"orderIndex" json:"orderIndex"`
	Weeks      []ProgramWeek      `bson:"weeks" json:"weeks"`
}

// ProgramWeek holds the sessions of one training week. Variant is only
// meaningful while the owning program has PeriodizationABCD enabled.
type ProgramWeek struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Variant    *WeekVariant       `bson:"variant,omitempty" json:"variant,omitempty"`
	OrderIndex int                `bson:"orderIndex" json:"orderIndex"`
	Sessions   []Session          `bson:"sessions" json:"sessions"`
}

// Session is one planned workout within a week.
type Session struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	DayOfWeek     *int               `bson:"dayOfWeek,omitempty" json:"dayOfWeek,omitempty"` // 1 (Mon) - 7 (Sun)
	BackgroundKey string             `bson:"backgroundKey,omitempty" json:"backgroundKey,omitempty"`
	OrderIndex    int                `bson:"orderIndex" json:"orderIndex"`
	Warmup        []Exercise         `bson:"warmup" json:"warmup"`
	Exercises     []Exercise         `bson:"exercises" json:"exercises"`
}

// Exercise is a planned exercise with its target sets.
type Exercise struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	Name            string             `bson:"name" json:"name"`
	RestTimeSeconds int                `bson:"restTimeSeconds" json:"restTimeSeconds"`
	TrainingMode    TrainingMode       `bson:"trainingMode" json:"trainingMode"`
	OrderIndex      int                `bson:"orderIndex" json:"orderIndex"`
	Sets            []Set              `bson:"sets" json:"sets"`
}

// Set is one planned set with its targets. Either RPE or RIR may be used.
type Set struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	TargetReps int                `bson:"targetReps" json:"targetReps"`
	TargetRPE  *float64           `bson:"targetRpe,omitempty" json:"targetRpe,omitempty"`
	TargetRIR  *float64           `bson:"targetRir,omitempty" json:"targetRir,omitempty"`
	OrderIndex int                `bson:"orderIndex" json:"orderIndex"`
}

// NewProgram creates an empty program owned by ownerID. Macrocycles starts
// as an empty, non-nil slice so downstream readers never see null.
func NewProgram(ownerID primitive.ObjectID, name, description string) *Program {
	return &Program{
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		Macrocycles: []Macrocycle{},
	}
}

// IsComplex reports whether the program has grown beyond a single
// macrocycle/mesocycle spine. A complex program cannot be demoted.
func (p *Program) IsComplex() bool {
	if len(p.Macrocycles) > 1 {
		return true
	}
	return len(p.Macrocycles) == 1 && len(p.Macrocycles[0].Mesocycles) > 1
}

// SetComplex toggles the editor between the simple and the full hierarchy
// view. Enabling ensures a macro/meso spine exists; disabling is rejected
// once the program actually uses more than one macrocycle or mesocycle.
func (p *Program) SetComplex(complex bool) error {
	if complex {
		if len(p.Macrocycles) == 0 {
			p.AddMacrocycle("Block 1")
		}
		if len(p.Macrocycles[0].Mesocycles) == 0 {
			_, _ = p.AddMesocycle(p.Macrocycles[0].ID, "Mesocycle 1", GoalAccumulation, "")
		}
		p.Complex = true
		return nil
	}
	if p.IsComplex() {
		return ErrProgramComplex
	}
	p.Complex = false
	return nil
}

// === Add operations ===

// AddMacrocycle appends a new macrocycle at the end of the program.
func (p *Program) AddMacrocycle(name string) *Macrocycle {
	m := Macrocycle{
		ID:         primitive.NewObjectID(),
		Name:       name,
		OrderIndex: len(p.Macrocycles),
		Mesocycles: []Mesocycle{},
	}
	p.Macrocycles = append(p.Macrocycles, m)
	return &p.Macrocycles[len(p.Macrocycles)-1]
}

// AddMesocycle appends a new mesocycle to the macrocycle with the given id.
func (p *Program) AddMesocycle(macroID primitive.ObjectID, name string, goal MesocycleGoal, customGoal string) (*Mesocycle, error) {
	macro := p.findMacrocycle(macroID)
	if macro == nil {
		return nil, ErrNodeNotFound
	}
	m := Mesocycle{
		ID:         primitive.NewObjectID(),
		Name:       name,
		Goal:       goal,
		CustomGoal: customGoal,
		OrderIndex: len(macro.Mesocycles),
		Weeks:      []ProgramWeek{},
	}
	macro.Mesocycles = append(macro.Mesocycles, m)
	return &macro.Mesocycles[len(macro.Mesocycles)-1], nil
}

// AddWeek appends a new week to the mesocycle with the given id.
func (p *Program) AddWeek(mesoID primitive.ObjectID, name string) (*ProgramWeek, error) {
	meso := p.findMesocycle(mesoID)
	if meso == nil {
		return nil, ErrNodeNotFound
	}
	w := ProgramWeek{
		ID:         primitive.NewObjectID(),
		Name:       name,
		OrderIndex: len(meso.Weeks),
		Sessions:   []Session{},
	}
	meso.Weeks = append(meso.Weeks, w)
	return &meso.Weeks[len(meso.Weeks)-1], nil
}

// AddSession appends a new session to the week with the given id.
func (p *Program) AddSession(weekID primitive.ObjectID, name, description string) (*Session, error) {
	week := p.findWeek(weekID)
	if week == nil {
		return nil, ErrNodeNotFound
	}
	s := Session{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Description: description,
		OrderIndex:  len(week.Sessions),
		Warmup:      []Exercise{},
		Exercises:   []Exercise{},
	}
	week.Sessions = append(week.Sessions, s)
	return &week.Sessions[len(week.Sessions)-1], nil
}

// === Remove operations (cascade to descendants, siblings renumbered) ===

// RemoveMacrocycle deletes the macrocycle and everything under it.
func (p *Program) RemoveMacrocycle(id primitive.ObjectID) error {
	for i := range p.Macrocycles {
		if p.Macrocycles[i].ID == id {
			p.Macrocycles = append(p.Macrocycles[:i], p.Macrocycles[i+1:]...)
			if p.Macrocycles == nil {
				p.Macrocycles = []Macrocycle{}
			}
			renumberMacrocycles(p.Macrocycles)
			return nil
		}
	}
	return ErrNodeNotFound
}

// RemoveMesocycle deletes the mesocycle and everything under it.
func (p *Program) RemoveMesocycle(id primitive.ObjectID) error {
	for mi := range p.Macrocycles {
		macro := &p.Macrocycles[mi]
		for i := range macro.Mesocycles {
			if macro.Mesocycles[i].ID == id {
				macro.Mesocycles = append(macro.Mesocycles[:i], macro.Mesocycles[i+1:]...)
				if macro.Mesocycles == nil {
					macro.Mesocycles = []Mesocycle{}
				}
				renumberMesocycles(macro.Mesocycles)
				return nil
			}
		}
	}
	return ErrNodeNotFound
}

// RemoveWeek deletes the week and its sessions.
func (p *Program) RemoveWeek(id primitive.ObjectID) error {
	meso, i := p.findWeekParent(id)
	if meso == nil {
		return ErrNodeNotFound
	}
	meso.Weeks = append(meso.Weeks[:i], meso.Weeks[i+1:]...)
	if meso.Weeks == nil {
		meso.Weeks = []ProgramWeek{}
	}
	renumberWeeks(meso.Weeks)
	return nil
}

// RemoveSession deletes the session.
func (p *Program) RemoveSession(id primitive.ObjectID) error {
	week, i := p.findSessionParent(id)
	if week == nil {
		return ErrNodeNotFound
	}
	week.Sessions = append(week.Sessions[:i], week.Sessions[i+1:]...)
	if week.Sessions == nil {
		week.Sessions = []Session{}
	}
	renumberSessions(week.Sessions)
	return nil
}

// === Rename operations ===

func (p *Program) RenameMacrocycle(id primitive.ObjectID, name string) error {
	if m := p.findMacrocycle(id); m != nil {
		m.Name = name
		return nil
	}
	return ErrNodeNotFound
}

func (p *Program) RenameMesocycle(id primitive.ObjectID, name string) error {
	if m := p.findMesocycle(id); m != nil {
		m.Name = name
		return nil
	}
	return ErrNodeNotFound
}

func (p *Program) RenameWeek(id primitive.ObjectID, name string) error {
	if w := p.findWeek(id); w != nil {
		w.Name = name
		return nil
	}
	return ErrNodeNotFound
}

func (p *Program) RenameSession(id primitive.ObjectID, name string) error {
	if s := p.findSession(id); s != nil {
		s.Name = name
		return nil
	}
	return ErrNodeNotFound
}

// === Reorder operations ===

// MoveMacrocycle moves the macrocycle at index from to index to.
func (p *Program) MoveMacrocycle(from, to int) error {
	moved, err := moveSibling(p.Macrocycles, from, to)
	if err != nil {
		return err
	}
	p.Macrocycles = moved
	renumberMacrocycles(p.Macrocycles)
	return nil
}

// MoveMesocycle reorders mesocycles within the given macrocycle.
func (p *Program) MoveMesocycle(macroID primitive.ObjectID, from, to int) error {
	macro := p.findMacrocycle(macroID)
	if macro == nil {
		return ErrNodeNotFound
	}
	moved, err := moveSibling(macro.Mesocycles, from, to)
	if err != nil {
		return err
	}
	macro.Mesocycles = moved
	renumberMesocycles(macro.Mesocycles)
	return nil
}

// MoveWeek reorders weeks within the given mesocycle.
func (p *Program) MoveWeek(mesoID primitive.ObjectID, from, to int) error {
	meso := p.findMesocycle(mesoID)
	if meso == nil {
		return ErrNodeNotFound
	}
	moved, err := moveSibling(meso.Weeks, from, to)
	if err != nil {
		return err
	}
	meso.Weeks = moved
	renumberWeeks(meso.Weeks)
	return nil
}

// MoveSession reorders sessions within the given week.
func (p *Program) MoveSession(weekID primitive.ObjectID, from, to int) error {
	week := p.findWeek(weekID)
	if week == nil {
		return ErrNodeNotFound
	}
	moved, err := moveSibling(week.Sessions, from, to)
	if err != nil {
		return err
	}
	week.Sessions = moved
	renumberSessions(week.Sessions)
	return nil
}

// === Week variants ===

// SetWeekVariant assigns a variant to the week. Assigning requires the
// program's PeriodizationABCD flag; clearing (nil) is always allowed.
func (p *Program) SetWeekVariant(weekID primitive.ObjectID, variant *WeekVariant) error {
	week := p.findWeek(weekID)
	if week == nil {
		return ErrNodeNotFound
	}
	if variant == nil {
		week.Variant = nil
		return nil
	}
	if !p.PeriodizationABCD {
		return ErrVariantsDisabled
	}
	if !variant.Valid() {
		return ErrInvalidVariant
	}
	v := *variant
	week.Variant = &v
	return nil
}

// SetPeriodizationABCD toggles the ABCD flag. Disabling clears every week
// variant in the program; re-enabling does not restore them.
func (p *Program) SetPeriodizationABCD(enabled bool) {
	p.PeriodizationABCD = enabled
	if enabled {
		return
	}
	for mi := range p.Macrocycles {
		for si := range p.Macrocycles[mi].Mesocycles {
			weeks := p.Macrocycles[mi].Mesocycles[si].Weeks
			for wi := range weeks {
				weeks[wi].Variant = nil
			}
		}
	}
}

// InstantiateTemplate deep-copies the given macrocycles, reassigning every
// entity id, and appends them to the program. The new subtree shares no
// identity with the source, so a template can be instantiated repeatedly.
func (p *Program) InstantiateTemplate(template []Macrocycle) {
	cloned := CloneMacrocycles(template)
	p.Macrocycles = append(p.Macrocycles, cloned...)
	renumberMacrocycles(p.Macrocycles)
}

// FindSession returns the session with the given id along with its owning
// week, or nil when absent.
func (p *Program) FindSession(id primitive.ObjectID) (*Session, *ProgramWeek) {
	for mi := range p.Macrocycles {
		for si := range p.Macrocycles[mi].Mesocycles {
			meso := &p.Macrocycles[mi].Mesocycles[si]
			for wi := range meso.Weeks {
				week := &meso.Weeks[wi]
				for i := range week.Sessions {
					if week.Sessions[i].ID == id {
						return &week.Sessions[i], week
					}
				}
			}
		}
	}
	return nil, nil
}

// === Lookup helpers ===

func (p *Program) findMacrocycle(id primitive.ObjectID) *Macrocycle {
	for i := range p.Macrocycles {
		if p.Macrocycles[i].ID == id {
			return &p.Macrocycles[i]
		}
	}
	return nil
}

func (p *Program) findMesocycle(id primitive.ObjectID) *Mesocycle {
	for mi := range p.Macrocycles {
		for i := range p.Macrocycles[mi].Mesocycles {
			if p.Macrocycles[mi].Mesocycles[i].ID == id {
				return &p.Macrocycles[mi].Mesocycles[i]
			}
		}
	}
	return nil
}

func (p *Program) findWeek(id primitive.ObjectID) *ProgramWeek {
	meso, i := p.findWeekParent(id)
	if meso == nil {
		return nil
	}
	return &meso.Weeks[i]
}

func (p *Program) findWeekParent(id primitive.ObjectID) (*Mesocycle, int) {
	for mi := range p.Macrocycles {
		for si := range p.Macrocycles[mi].Mesocycles {
			meso := &p.Macrocycles[mi].Mesocycles[si]
			for i := range meso.Weeks {
				if meso.Weeks[i].ID == id {
					return meso, i
				}
			}
		}
	}
	return nil, -1
}

func (p *Program) findSession(id primitive.ObjectID) *Session {
	s, _ := p.FindSession(id)
	return s
}

func (p *Program) findSessionParent(id primitive.ObjectID) (*ProgramWeek, int) {
	for mi := range p.Macrocycles {
		for si := range p.Macrocycles[mi].Mesocycles {
			meso := &p.Macrocycles[mi].Mesocycles[si]
			for wi := range meso.Weeks {
				week := &meso.Weeks[wi]
				for i := range week.Sessions {
					if week.Sessions[i].ID == id {
						return week, i
					}
				}
			}
		}
	}
	return nil, -1
}

// === Renumbering ===

func moveSibling[T any](list []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(list) || to < 0 || to >= len(list) {
		return nil, ErrIndexOutOfRange
	}
	if from == to {
		return list, nil
	}
	item := list[from]
	list = append(list[:from], list[from+1:]...)
	list = append(list, item) // grow back to original length
	copy(list[to+1:], list[to:len(list)-1])
	list[to] = item
	return list, nil
}

func renumberMacrocycles(list []Macrocycle) {
	for i := range list {
		list[i].OrderIndex = i
	}
}

func renumberMesocycles(list []Mesocycle) {
	for i := range list {
		list[i].OrderIndex = i
	}
}

func renumberWeeks(list []ProgramWeek) {
	for i := range list {
		list[i].OrderIndex = i
	}
}

func renumberSessions(list []Session) {
	for i := range list {
		list[i].OrderIndex = i
	}
}
