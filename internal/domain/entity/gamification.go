package entity

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Gamification rules.
const (
	PointsPerApprovedUpload = 10
	PointsPerPurchase       = 20
	LevelUpCreditReward     = 300
	MinLevel                = 1
	MaxLevel                = 30
)

// levelThresholds[i] is the cumulative points needed for level i+1.
var levelThresholds = [MaxLevel]int64{
	0, 50, 100, 200, 300, 450, 600, 800, 1000, 1250,
	1500, 1800, 2100, 2500, 2900, 3400, 3900, 4500, 5100, 5800,
	6500, 7300, 8100, 9000, 10000, 11000, 12000, 13500, 15000, 17000,
}

// LevelThreshold returns the points at which level starts. Out of range levels are clamped.
func LevelThreshold(level int) int64 {
	level = min(max(level, MinLevel), MaxLevel)

	return levelThresholds[level-1]
}

// LevelForPoints maps cumulative points to a level in [1, 30].
func LevelForPoints(points int64) int {
	if points < 0 {
		return MinLevel
	}
	// first index whose threshold exceeds points
	idx := sort.Search(MaxLevel, func(i int) bool { return levelThresholds[i] > points })

	return idx
}

// Tier is a named band of levels.
type Tier string

const (
	TierBeginner     Tier = "Beginner"
	TierNovice       Tier = "Novice"
	TierIntermediate Tier = "Intermediate"
	TierAdvanced     Tier = "Advanced"
	TierExpert       Tier = "Expert"
)

// TierForLevel returns the tier band containing level.
func TierForLevel(level int) Tier {
	switch {
	case level <= 5:
		return TierBeginner
	case level <= 10:
		return TierNovice
	case level <= 15:
		return TierIntermediate
	case level <= 20:
		return TierAdvanced
	default:
		return TierExpert
	}
}

// PointsEvent records one change to a user's trading points.
type PointsEvent struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Delta     int64
	Reason    string
	CreatedAt time.Time
}
