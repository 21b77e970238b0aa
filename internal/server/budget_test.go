package server

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNewShotBudget(t *testing.T) {
	Convey("Given a new shot budget", t, func() {
		budget := NewShotBudget(100, 1000)

		Convey("It should start full", func() {
			So(budget.tokens, ShouldEqual, 100)
			So(budget.maxTokens, ShouldEqual, 100)
			So(budget.refillRate, ShouldEqual, time.Millisecond)
		})

		Convey("A non-positive rate falls back to one shot per second", func() {
			So(NewShotBudget(10, 0).refillRate, ShouldEqual, time.Second)
		})
	})
}

func TestShotBudgetLimit(t *testing.T) {
	Convey("Given a budget of 1000 shots", t, func() {
		budget := NewShotBudget(1000, 1)
		metrics := newMetrics()
		budget.Observe(metrics)

		Convey("Measurements within the budget pass", func() {
			So(budget.Limit(600), ShouldBeFalse)
			So(budget.Limit(400), ShouldBeFalse)
			So(budget.Available(), ShouldEqual, 0)
		})

		Convey("A measurement larger than what is left is refused whole", func() {
			So(budget.Limit(900), ShouldBeFalse)
			So(budget.Limit(200), ShouldBeTrue)
			So(budget.Available(), ShouldEqual, 100)
			So(metrics.BudgetHits, ShouldEqual, int64(1))
		})

		Convey("Zero-trial measurements are always allowed", func() {
			So(budget.Limit(1000), ShouldBeFalse)
			So(budget.Limit(0), ShouldBeFalse)
		})
	})
}

func TestShotBudgetRefill(t *testing.T) {
	Convey("Given a drained budget refilling every 10ms", t, func() {
		budget := NewShotBudget(5, 100)
		So(budget.Limit(5), ShouldBeFalse)
		So(budget.Limit(1), ShouldBeTrue)

		Convey("Shots flow back over time", func() {
			time.Sleep(35 * time.Millisecond)
			So(budget.Available(), ShouldBeBetweenOrEqual, 3, 5)
		})

		Convey("The bucket never exceeds its size", func() {
			time.Sleep(150 * time.Millisecond)
			So(budget.Available(), ShouldEqual, 5)
		})
	})
}
