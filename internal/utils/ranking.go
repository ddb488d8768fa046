package utils

import (
	"math"
	"time"
)

type RankConfig struct {
	Gravity      float64 // 时间重力 (1.5)
	WeightAnswer float64 // 2.0
	WeightVote   float64 // 1.0
	ScaleFactor  float64 // 放大系数 (100)
}

var DefaultConfig = RankConfig{
	Gravity:      1.5,
	WeightAnswer: 2.0,
	WeightVote:   1.0,
	ScaleFactor:  100.0,
}

// HotScore ranks a question by net votes and answers, decaying with age.
func HotScore(createdAt time.Time, votes, answers int, now time.Time) float64 {
	hours := now.Sub(createdAt).Hours()
	if hours < 0 {
		hours = 0
	}

	weightedSum := float64(votes)*DefaultConfig.WeightVote +
		float64(answers)*DefaultConfig.WeightAnswer
	if weightedSum < 0 {
		weightedSum = 0 // 防止负数无法取对数
	}

	// log10(sum + 1) -> sum=0 时结果为 0
	numerator := math.Log10(weightedSum+1) * DefaultConfig.ScaleFactor
	decay := math.Pow(hours+2, DefaultConfig.Gravity)
	return numerator / decay
}
