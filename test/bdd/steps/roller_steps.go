package steps

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/domain/roller"
	"github.com/andrescamacho/gangsim/pkg/utils"
)

type rollerContext struct {
	seed  roller.Seed
	min   decimal.Decimal
	max   decimal.Decimal
	draws []decimal.Decimal
	err   error
}

func (rc *rollerContext) reset() {
	rc.seed = roller.Seed{}
	rc.min = decimal.Zero
	rc.max = decimal.Zero
	rc.draws = nil
	rc.err = nil
}

// Given steps

func (rc *rollerContext) theSeedLabelled(label string) error {
	rc.seed = roller.SeedFromString(label)
	return nil
}

// When steps

func (rc *rollerContext) iDrawValuesBetweenAndWithBias(count int, min, max int64, bias string) error {
	b, err := utils.ParseUnits(bias)
	if err != nil {
		return err
	}
	rc.min = utils.Units(min)
	rc.max = utils.Units(max)
	rc.draws = make([]decimal.Decimal, 0, count)

	seed := rc.seed
	for i := 0; i < count; i++ {
		v, err := roller.BiasedDraw(seed, rc.min, rc.max, b)
		if err != nil {
			rc.err = err
			return nil
		}
		rc.draws = append(rc.draws, v)
		seed = seed.Next()
	}
	return nil
}

func (rc *rollerContext) iDrawUniformlyBetweenAnd(min, max int64) error {
	rc.min = utils.Units(min)
	rc.max = utils.Units(max)
	v, err := roller.UniformDraw(rc.seed, rc.min, rc.max)
	rc.err = err
	if err == nil {
		rc.draws = []decimal.Decimal{v}
	}
	return nil
}

// Then steps

func (rc *rollerContext) everyDrawShouldLieWithinTheRange() error {
	if rc.err != nil {
		return fmt.Errorf("draw failed: %w", rc.err)
	}
	for i, v := range rc.draws {
		if v.LessThan(rc.min) || !v.LessThan(rc.max) {
			return fmt.Errorf("draw %d = %s outside [%s, %s)", i, utils.FormatUnits(v), utils.FormatUnits(rc.min), utils.FormatUnits(rc.max))
		}
	}
	return nil
}

func (rc *rollerContext) theMeanShouldBeBelow(limit int64) error {
	mean := rc.mean()
	if !mean.LessThan(utils.Units(limit)) {
		return fmt.Errorf("expected mean below %d, got %s", limit, utils.FormatUnits(mean))
	}
	return nil
}

func (rc *rollerContext) theMeanShouldBeAbove(limit int64) error {
	mean := rc.mean()
	if !mean.GreaterThan(utils.Units(limit)) {
		return fmt.Errorf("expected mean above %d, got %s", limit, utils.FormatUnits(mean))
	}
	return nil
}

func (rc *rollerContext) theDrawShouldBeRejected() error {
	if rc.err == nil {
		return fmt.Errorf("expected the draw to be rejected, got %v", rc.draws)
	}
	return nil
}

func (rc *rollerContext) mean() decimal.Decimal {
	if len(rc.draws) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, v := range rc.draws {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(len(rc.draws))))
}

func InitializeRollerScenario(sc *godog.ScenarioContext) {
	rc := &rollerContext{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		rc.reset()
		return ctx, nil
	})

	sc.Step(`^the seed labelled "([^"]*)"$`, rc.theSeedLabelled)

	sc.Step(`^I draw (\d+) values between (\d+) and (\d+) with bias ([0-9.]+)$`, rc.iDrawValuesBetweenAndWithBias)
	sc.Step(`^I draw uniformly between (\d+) and (\d+)$`, rc.iDrawUniformlyBetweenAnd)

	sc.Step(`^every draw should lie within the range$`, rc.everyDrawShouldLieWithinTheRange)
	sc.Step(`^the mean draw should be below (\d+)$`, rc.theMeanShouldBeBelow)
	sc.Step(`^the mean draw should be above (\d+)$`, rc.theMeanShouldBeAbove)
	sc.Step(`^the draw should be rejected$`, rc.theDrawShouldBeRejected)
}
