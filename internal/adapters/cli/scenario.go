package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	gangCommands "github.com/andrescamacho/gangsim/internal/application/gang/commands"
	"github.com/andrescamacho/gangsim/internal/application/mediator"
	siteCommands "github.com/andrescamacho/gangsim/internal/application/site/commands"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/internal/infrastructure/world"
	"github.com/andrescamacho/gangsim/pkg/utils"
)

// Scenario is a scripted sequence of player actions against a world
type Scenario struct {
	// Start of the simulated clock, RFC3339; empty uses the economy genesis
	Start string `yaml:"start,omitempty"`
	Steps []Step `yaml:"steps"`
}

// Step is one action of a scenario. Gangs are named by the alias given to
// spawn ("as") or by their reference, e.g. gang:0. Amounts are whole units.
type Step struct {
	Action     string `yaml:"action"`
	Player     string `yaml:"player,omitempty"`
	As         string `yaml:"as,omitempty"`
	Gang       string `yaml:"gang,omitempty"`
	Target     string `yaml:"target,omitempty"`
	Town       string `yaml:"town,omitempty"`
	Site       string `yaml:"site,omitempty"`
	To         string `yaml:"to,omitempty"`
	Currency   string `yaml:"currency,omitempty"`
	Amount     string `yaml:"amount,omitempty"`
	Collection string `yaml:"collection,omitempty"`
	Count      int    `yaml:"count,omitempty"`
	Duration   string `yaml:"duration,omitempty"`
	// ExpectError marks a step that must be rejected
	ExpectError bool `yaml:"expect_error,omitempty"`
}

// StepResult reports what one step did
type StepResult struct {
	Index  int
	Action string
	Time   time.Time
	Detail string
	Err    error
}

// LoadScenario reads a scenario file
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a scenario
func ParseScenario(data []byte) (Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if len(sc.Steps) == 0 {
		return Scenario{}, fmt.Errorf("scenario has no steps")
	}
	for i, step := range sc.Steps {
		if _, ok := stepActions[step.Action]; !ok {
			return Scenario{}, fmt.Errorf("step %d: unknown action %q", i, step.Action)
		}
	}
	return sc, nil
}

// StartTime parses Start, falling back to def
func (sc Scenario) StartTime(def time.Time) (time.Time, error) {
	if sc.Start == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, sc.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid scenario start: %w", err)
	}
	return t, nil
}

// Simulator plays scenarios through the mediator against a world on a mock clock
type Simulator struct {
	mediator mediator.Mediator
	world    *world.World
	clock    *shared.MockClock
	aliases  map[string]shared.EntityRef
}

// NewSimulator creates a simulator. The world must have been built on clock.
func NewSimulator(m mediator.Mediator, w *world.World, clock *shared.MockClock) *Simulator {
	return &Simulator{mediator: m, world: w, clock: clock, aliases: make(map[string]shared.EntityRef)}
}

// Gang resolves an alias or gang reference
func (s *Simulator) Gang(name string) (shared.EntityRef, error) {
	if ref, ok := s.aliases[name]; ok {
		return ref, nil
	}
	ref, err := shared.ParseEntityRef(name)
	if err != nil {
		return shared.EntityRef{}, fmt.Errorf("unknown gang %q", name)
	}
	return ref, nil
}

// Aliases returns the gangs spawned under an alias
func (s *Simulator) Aliases() map[string]shared.EntityRef {
	out := make(map[string]shared.EntityRef, len(s.aliases))
	for k, v := range s.aliases {
		out[k] = v
	}
	return out
}

// Run plays every step. It stops at the first step whose outcome differs from
// its expectation and returns the results so far.
func (s *Simulator) Run(ctx context.Context, sc Scenario) ([]StepResult, error) {
	results := make([]StepResult, 0, len(sc.Steps))
	for i, step := range sc.Steps {
		res := StepResult{Index: i, Action: step.Action, Time: s.clock.Now()}
		res.Detail, res.Err = stepActions[step.Action](s, ctx, step)
		results = append(results, res)

		switch {
		case res.Err != nil && !step.ExpectError:
			return results, fmt.Errorf("step %d (%s): %w", i, step.Action, res.Err)
		case res.Err == nil && step.ExpectError:
			return results, fmt.Errorf("step %d (%s): expected an error, got %s", i, step.Action, res.Detail)
		}
	}
	return results, nil
}

type stepAction func(s *Simulator, ctx context.Context, step Step) (string, error)

var stepActions map[string]stepAction

func init() {
	stepActions = map[string]stepAction{
		"mint":     (*Simulator).mint,
		"items":    (*Simulator).items,
		"spawn":    (*Simulator).spawn,
		"deposit":  (*Simulator).custody,
		"withdraw": (*Simulator).custody,
		"move":     (*Simulator).move,
		"despawn":  (*Simulator).despawn,
		"transfer": (*Simulator).transfer,
		"prepare":  (*Simulator).prepare,
		"claim":    (*Simulator).claim,
		"attack":   (*Simulator).attack,
		"resolve":  (*Simulator).resolve,
		"advance":  (*Simulator).advance,
		"set_prod": (*Simulator).setProd,
	}
}

func (s *Simulator) mint(ctx context.Context, step Step) (string, error) {
	amount, err := utils.ParseUnits(step.Amount)
	if err != nil {
		return "", err
	}
	if err := s.world.Bank.Mint(ctx, shared.Address(step.Currency), shared.Address(step.Player), amount); err != nil {
		return "", err
	}
	return fmt.Sprintf("minted %s %s to %s", step.Amount, step.Currency, step.Player), nil
}

func (s *Simulator) items(ctx context.Context, step Step) (string, error) {
	g, err := s.Gang(step.Gang)
	if err != nil {
		return "", err
	}
	if err := s.world.Items.Add(ctx, g, shared.Address(step.Collection), step.Count); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s holds %d more %s", g, step.Count, step.Collection), nil
}

func (s *Simulator) spawn(ctx context.Context, step Step) (string, error) {
	town, err := s.town(step)
	if err != nil {
		return "", err
	}
	resp, err := s.mediator.Send(ctx, &gangCommands.SpawnGangCommand{Town: town, Player: shared.Address(step.Player)})
	if err != nil {
		return "", err
	}
	g := resp.(*gangCommands.SpawnGangResponse).Gang
	if step.As != "" {
		s.aliases[step.As] = g
	}
	return fmt.Sprintf("%s spawned %s at %s", step.Player, g, town), nil
}

func (s *Simulator) custody(ctx context.Context, step Step) (string, error) {
	g, err := s.Gang(step.Gang)
	if err != nil {
		return "", err
	}
	town, err := s.town(step)
	if err != nil {
		return "", err
	}
	amount, err := utils.ParseUnits(step.Amount)
	if err != nil {
		return "", err
	}

	var req mediator.Request = &gangCommands.DepositCurrencyCommand{
		Town: town, Player: shared.Address(step.Player), Gang: g, Currency: shared.Address(step.Currency), Amount: amount,
	}
	if step.Action == "withdraw" {
		req = &gangCommands.WithdrawCurrencyCommand{
			Town: town, Player: shared.Address(step.Player), Gang: g, Currency: shared.Address(step.Currency), Amount: amount,
		}
	}
	resp, err := s.mediator.Send(ctx, req)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s holds %s %s", step.Action, g, formatUnits(resp.(*gangCommands.CustodyResponse).Balance), step.Currency), nil
}

func (s *Simulator) move(ctx context.Context, step Step) (string, error) {
	g, err := s.Gang(step.Gang)
	if err != nil {
		return "", err
	}
	resp, err := s.mediator.Send(ctx, &gangCommands.MoveGangCommand{Player: shared.Address(step.Player), Gang: g, Destination: shared.Address(step.To)})
	if err != nil {
		return "", err
	}
	moved := resp.(*gangCommands.MoveGangResponse)
	return fmt.Sprintf("%s moved %s -> %s", g, moved.From, moved.To), nil
}

func (s *Simulator) despawn(ctx context.Context, step Step) (string, error) {
	g, err := s.Gang(step.Gang)
	if err != nil {
		return "", err
	}
	if _, err := s.mediator.Send(ctx, &gangCommands.DespawnGangCommand{Player: shared.Address(step.Player), Gang: g}); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s despawned", g), nil
}

func (s *Simulator) transfer(ctx context.Context, step Step) (string, error) {
	g, err := s.Gang(step.Gang)
	if err != nil {
		return "", err
	}
	if _, err := s.mediator.Send(ctx, &gangCommands.TransferGangCommand{Player: shared.Address(step.Player), Gang: g, To: shared.Address(step.To)}); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s now owned by %s", g, step.To), nil
}

func (s *Simulator) prepare(ctx context.Context, step Step) (string, error) {
	g, site, err := s.gangAtSite(ctx, step)
	if err != nil {
		return "", err
	}
	resp, err := s.mediator.Send(ctx, &siteCommands.PrepareToMoveCommand{Site: site, Player: shared.Address(step.Player), Gang: g, Destination: shared.Address(step.To)})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s leaves for %s at %s", g, step.To, resp.(*siteCommands.PrepareToMoveResponse).ReadyAt.Format(time.RFC3339)), nil
}

func (s *Simulator) claim(ctx context.Context, step Step) (string, error) {
	g, site, err := s.gangAtSite(ctx, step)
	if err != nil {
		return "", err
	}
	resp, err := s.mediator.Send(ctx, &siteCommands.ClaimResourcesCommand{Site: site, Player: shared.Address(step.Player), Gang: g})
	if err != nil {
		return "", err
	}
	claimed := resp.(*siteCommands.ClaimResourcesResponse)
	return fmt.Sprintf("%s claimed %s %s", g, formatUnits(claimed.Claimed), claimed.Resource), nil
}

func (s *Simulator) attack(ctx context.Context, step Step) (string, error) {
	g, site, err := s.gangAtSite(ctx, step)
	if err != nil {
		return "", err
	}
	target, err := s.Gang(step.Target)
	if err != nil {
		return "", err
	}
	resp, err := s.mediator.Send(ctx, &siteCommands.StartAttackCommand{Site: site, Player: shared.Address(step.Player), Attacker: g, Defender: target})
	if err != nil {
		return "", err
	}
	status := resp.(*siteCommands.StartAttackResponse).Status
	return fmt.Sprintf("%s attacks %s on tick %d", g, target, status.Tick), nil
}

func (s *Simulator) resolve(ctx context.Context, step Step) (string, error) {
	g, site, err := s.gangAtSite(ctx, step)
	if err != nil {
		return "", err
	}
	resp, err := s.mediator.Send(ctx, &siteCommands.ResolveAttackCommand{Site: site, Player: shared.Address(step.Player), Attacker: g})
	if err != nil {
		return "", err
	}
	out := resp.(*siteCommands.ResolveAttackResponse).Outcome
	if out.Fizzled {
		return fmt.Sprintf("%s's attack on %s fizzled", g, out.Defender), nil
	}
	return fmt.Sprintf("%s took %s from %s (%s bps) at a cost of %s",
		g, formatUnits(out.Winnings), out.Defender, out.WinBps, formatUnits(out.Cost)), nil
}

func (s *Simulator) advance(_ context.Context, step Step) (string, error) {
	d, err := time.ParseDuration(step.Duration)
	if err != nil {
		return "", fmt.Errorf("invalid duration: %w", err)
	}
	if d < 0 {
		return "", fmt.Errorf("cannot advance by a negative duration %s", d)
	}
	s.clock.Advance(d)
	return fmt.Sprintf("clock at %s", s.clock.Now().Format(time.RFC3339)), nil
}

func (s *Simulator) setProd(ctx context.Context, step Step) (string, error) {
	amount, err := utils.ParseUnits(step.Amount)
	if err != nil {
		return "", err
	}
	caller := s.world.Manager()
	if step.Player != "" {
		caller = shared.Address(step.Player)
	}
	site := shared.Address(step.Site)
	if _, err := s.mediator.Send(ctx, &siteCommands.SetBaseProdDailyCommand{Site: site, Caller: caller, Amount: amount}); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s produces %s per day", site, step.Amount), nil
}

// town returns the step's town, or the first town of the world
func (s *Simulator) town(step Step) (shared.Address, error) {
	if step.Town != "" {
		return shared.Address(step.Town), nil
	}
	towns := s.world.Towns()
	if len(towns) == 0 {
		return "", fmt.Errorf("world has no town")
	}
	return towns[0].Address(), nil
}

// gangAtSite returns the step's gang and its site, defaulting to where the gang is
func (s *Simulator) gangAtSite(ctx context.Context, step Step) (shared.EntityRef, shared.Address, error) {
	g, err := s.Gang(step.Gang)
	if err != nil {
		return shared.EntityRef{}, "", err
	}
	if step.Site != "" {
		return g, shared.Address(step.Site), nil
	}
	loc, err := s.world.Graph.LocationOf(ctx, g)
	if err != nil {
		return shared.EntityRef{}, "", err
	}
	return g, loc, nil
}
