package domain

import (
	"time"

	"github.com/worldforge-go/simcore/internal/entity"
	"github.com/worldforge-go/simcore/internal/geom"
)

// Void is the Domain of last resort: nothing placed under it is ever
// visible or reachable to anything else ("Void": entities
// awaiting destruction, or a detached staging area, sit here between
// RemoveEntity from one domain and AddEntity into another). It still
// tracks membership so GetVisibleEntitiesFor degrades safely to "nothing".
type Void struct {
	owner *entity.Entity
}

func NewVoid(owner *entity.Entity) *Void { return &Void{owner: owner} }

func (v *Void) AddEntity(child *entity.Entity)    { child.SetDomain(v) }
func (v *Void) RemoveEntity(child *entity.Entity) {}

func (v *Void) IsVisibleFor(observer, target *entity.Entity) bool { return false }

func (v *Void) CanReach(observer *entity.Entity, targetLoc entity.Location, extraRadius float64) bool {
	return false
}

func (v *Void) ProcessVisibilityForMovedEntity(e *entity.Entity, oldPos geom.Vector3) {}

func (v *Void) Tick(now time.Time) {}

func (v *Void) GetVisibleEntitiesFor(observer *entity.Entity, out *[]*entity.Entity) {}
