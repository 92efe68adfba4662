package character

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"

	"github.com/zeusync/sandbox/internal/core/models"
)

const (
	arriveDistance     = 0.1
	minWanderDistance  = 1
	maxWanderDistance  = 25
	minIdleSeconds     = 0.1
	maxIdleSeconds     = 3
	initialIdleSeconds = 1
)

// NpcData is the wander state of an NPC: idle until the timer runs out,
// then walking to Target.
type NpcData struct {
	Moving    bool
	Remaining float32
	Target    mgl32.Vec3
}

var Npc = donburi.NewComponentType[NpcData]()

func NewIdle(seconds float32) NpcData {
	return NpcData{Remaining: seconds}
}

func NewMoving(target mgl32.Vec3) NpcData {
	return NpcData{Moving: true, Target: target}
}

func (n NpcData) String() string {
	if n.Moving {
		return "Moving(" + models.FormatVec3(n.Target) + ")"
	}
	return fmt.Sprintf("Idle(%.2fs)", n.Remaining)
}

var npcQuery = donburi.NewQuery(filter.Contains(Npc, models.Transform, Speed))

// Wander moves NPCs between random points on the ground plane.
// It only writes components of the NPCs it iterates, so it may run in the
// parallel stage.
type Wander struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewWander(seed uint64) *Wander {
	return &Wander{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (wd *Wander) Name() string {
	return "npc-wander"
}

// Step advances every NPC by dt seconds.
func (wd *Wander) Step(w donburi.World, dt float32) {
	wd.mu.Lock()
	defer wd.mu.Unlock()

	npcQuery.Each(w, func(entry *donburi.Entry) {
		npc := Npc.Get(entry)
		transform := models.Transform.Get(entry)
		speed := Speed.Get(entry).Value

		if !npc.Moving {
			npc.Remaining -= dt
			if npc.Remaining <= 0 {
				*npc = NewMoving(transform.Translation.Add(wd.randomOffset()))
			}
			return
		}

		toTarget := npc.Target.Sub(transform.Translation)
		distance := toTarget.Len()
		if step := speed * dt; distance > 0 {
			if step > distance {
				step = distance
			}
			transform.Translation = transform.Translation.Add(toTarget.Mul(step / distance))
		}

		if transform.Translation.Sub(npc.Target).Len() < arriveDistance {
			*npc = NewIdle(wd.between(minIdleSeconds, maxIdleSeconds))
		}
	})
}

func (wd *Wander) randomOffset() mgl32.Vec3 {
	direction := mgl32.Vec3{wd.between(-1, 1), 0, wd.between(-1, 1)}
	if direction.Len() == 0 {
		direction = mgl32.Vec3{1, 0, 0}
	}
	return direction.Normalize().Mul(wd.between(minWanderDistance, maxWanderDistance))
}

func (wd *Wander) between(lo, hi float32) float32 {
	return lo + wd.rng.Float32()*(hi-lo)
}
