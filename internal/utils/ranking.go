package utils

import (
	"math"
	"time"
)

type RankConfig struct {
	Gravity        float64 // time decay exponent
	WeightFavorite float64
	WeightComment  float64
	WeightLike     float64
	WeightDislike  float64
	ScaleFactor    float64 // score multiplier
}

var DefaultRankConfig = RankConfig{
	Gravity:        1.5,
	WeightFavorite: 3.0,
	WeightComment:  2.0,
	WeightLike:     1.0,
	WeightDislike:  1.5,
	ScaleFactor:    100.0,
}

// HotScore ranks a post by weighted engagement, log smoothed and decayed by age.
func HotScore(createdAt time.Time, now time.Time, likes, dislikes, favorites, comments int) float64 {
	hours := now.Sub(createdAt).Hours()
	if hours < 0 {
		hours = 0
	}

	weightedSum := float64(likes)*DefaultRankConfig.WeightLike +
		float64(comments)*DefaultRankConfig.WeightComment +
		float64(favorites)*DefaultRankConfig.WeightFavorite -
		float64(dislikes)*DefaultRankConfig.WeightDislike

	// keep the log argument positive
	if weightedSum < 0 {
		weightedSum = 0
	}

	numerator := math.Log10(weightedSum+1) * DefaultRankConfig.ScaleFactor
	decay := math.Pow(hours+2, DefaultRankConfig.Gravity)

	return numerator / decay
}
