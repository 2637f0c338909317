// Package report runs pool scenarios and renders human-readable reports.
package report

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"gopkg.in/yaml.v3"

	"unstakepool/internal/fixedpoint"
	"unstakepool/internal/pool"
)

// Scenario step operations
const (
	OpAdd      = "add"
	OpSwap     = "swap"
	OpWithdraw = "withdraw"
)

// ScenarioStep is one pool operation in a scenario.
type ScenarioStep struct {
	Op     string `yaml:"op"`
	Amount string `yaml:"amount"`
}

// Scenario describes a pool and a sequence of operations to run against it.
// Amounts are decimal strings.
type Scenario struct {
	Name            string         `yaml:"name"`
	Price           string         `yaml:"price"`
	MinFee          string         `yaml:"min_fee"`
	MaxFee          string         `yaml:"max_fee"`
	LiquidityTarget string         `yaml:"liquidity_target"`
	Steps           []ScenarioStep `yaml:"steps"`
}

// DefaultScenario returns the reference scenario: two deposits, two swaps,
// and a full withdrawal.
func DefaultScenario() Scenario {
	return Scenario{
		Name:            "story",
		Price:           "1.5",
		MinFee:          "0.001",
		MaxFee:          "0.09",
		LiquidityTarget: "90",
		Steps: []ScenarioStep{
			{Op: OpAdd, Amount: "100"},
			{Op: OpSwap, Amount: "6"},
			{Op: OpAdd, Amount: "10"},
			{Op: OpSwap, Amount: "30"},
			{Op: OpWithdraw, Amount: "109.9991"},
		},
	}
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(filename string) (Scenario, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return Scenario{}, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}
	return scenario, nil
}

// StepResult is the outcome of one executed scenario step.
type StepResult struct {
	Action   string
	AmountIn string
	Result   string
	Fee      string
}

// Simulation is the executed scenario, ready for rendering.
type Simulation struct {
	Name            string
	Price           string
	MinFee          string
	MaxFee          string
	LiquidityTarget string
	Steps           []StepResult
	FinalTokens     string
	FinalStTokens   string
	FinalLpTokens   string
}

// Run executes the scenario against a fresh pool.
func Run(scenario Scenario) (Simulation, error) {
	price, err := fixedpoint.Parse[fixedpoint.Price](scenario.Price)
	if err != nil {
		return Simulation{}, fmt.Errorf("price: %w", err)
	}
	minFee, err := fixedpoint.Parse[fixedpoint.Percentage](scenario.MinFee)
	if err != nil {
		return Simulation{}, fmt.Errorf("min_fee: %w", err)
	}
	maxFee, err := fixedpoint.Parse[fixedpoint.Percentage](scenario.MaxFee)
	if err != nil {
		return Simulation{}, fmt.Errorf("max_fee: %w", err)
	}
	target, err := fixedpoint.Parse[fixedpoint.TokenAmount](scenario.LiquidityTarget)
	if err != nil {
		return Simulation{}, fmt.Errorf("liquidity_target: %w", err)
	}

	p, err := pool.New(price, minFee, maxFee, target)
	if err != nil {
		return Simulation{}, err
	}

	sim := Simulation{
		Name:            scenario.Name,
		Price:           price.String(),
		MinFee:          minFee.String(),
		MaxFee:          maxFee.String(),
		LiquidityTarget: target.String(),
	}

	for i, step := range scenario.Steps {
		result, err := runStep(p, step)
		if err != nil {
			return Simulation{}, fmt.Errorf("step %d (%s %s): %w", i+1, step.Op, step.Amount, err)
		}
		sim.Steps = append(sim.Steps, result)
	}

	tokens, staked, lpTokens := p.Balances()
	sim.FinalTokens = tokens.String()
	sim.FinalStTokens = staked.String()
	sim.FinalLpTokens = lpTokens.String()

	return sim, nil
}

func runStep(p *pool.Pool, step ScenarioStep) (StepResult, error) {
	switch step.Op {
	case OpAdd:
		amount, err := fixedpoint.Parse[fixedpoint.TokenAmount](step.Amount)
		if err != nil {
			return StepResult{}, err
		}
		lpOut, err := p.AddLiquidity(amount)
		if err != nil {
			return StepResult{}, err
		}
		return StepResult{
			Action:   "add liquidity",
			AmountIn: amount.String(),
			Result:   lpOut.String() + " LP",
		}, nil

	case OpSwap:
		amount, err := fixedpoint.Parse[fixedpoint.StakedTokenAmount](step.Amount)
		if err != nil {
			return StepResult{}, err
		}
		quote, err := p.QuoteSwap(amount)
		if err != nil {
			return StepResult{}, err
		}
		if _, err := p.Swap(amount); err != nil {
			return StepResult{}, err
		}
		return StepResult{
			Action:   "swap",
			AmountIn: amount.String(),
			Result:   quote.AmountOut.String() + " tokens",
			Fee:      quote.Fee.String(),
		}, nil

	case OpWithdraw:
		amount, err := fixedpoint.Parse[fixedpoint.LpTokenAmount](step.Amount)
		if err != nil {
			return StepResult{}, err
		}
		tokenOut, stakedOut, err := p.RemoveLiquidity(amount)
		if err != nil {
			return StepResult{}, err
		}
		return StepResult{
			Action:   "withdraw",
			AmountIn: amount.String() + " LP",
			Result:   fmt.Sprintf("%s tokens + %s staked", tokenOut, stakedOut),
		}, nil

	default:
		return StepResult{}, fmt.Errorf("unknown operation %q", step.Op)
	}
}

const reportTemplate = `{{ .Name | upper }} SIMULATION
{{ repeat 48 "=" }}
price {{ .Price }} | fees {{ .MinFee }}..{{ .MaxFee }} | liquidity target {{ .LiquidityTarget }}

{{ range $i, $step := .Steps -}}
{{ add $i 1 }}. {{ $step.Action }} {{ $step.AmountIn }} -> {{ $step.Result }}{{ if $step.Fee }} (fee {{ $step.Fee }}){{ end }}
{{ end -}}
{{ repeat 48 "-" }}
final balances: {{ .FinalTokens }} tokens | {{ .FinalStTokens }} staked | {{ .FinalLpTokens }} LP
`

// Render writes the simulation report using the built-in template.
func Render(w io.Writer, sim Simulation) error {
	tmpl, err := template.New("report").Funcs(sprig.FuncMap()).Parse(reportTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse report template: %w", err)
	}
	if err := tmpl.Execute(w, sim); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}
