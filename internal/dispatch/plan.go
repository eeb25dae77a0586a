package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/tokendesk/internal/token"
	"github.com/go-playground/validator/v10"
)

// ErrValidation is returned when input fails local checks. No write is issued.
var ErrValidation = errors.New("invalid input")

// Action names one user operation.
type Action string

const (
	Transfer  Action = "transfer"
	Mint      Action = "mint"
	Burn      Action = "burn"
	Stake     Action = "stake"
	Unstake   Action = "unstake"
	Approve   Action = "approve"
	Multisend Action = "multisend"
	Pause     Action = "pause"
	Unpause   Action = "unpause"
)

// Actions lists every action in display order.
var Actions = []Action{Transfer, Mint, Burn, Stake, Unstake, Approve, Multisend, Pause, Unpause}

// ParseAction resolves an action by name.
func ParseAction(s string) (Action, error) {
	for _, a := range Actions {
		if strings.EqualFold(string(a), s) {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: unknown action %q", ErrValidation, s)
}

// Methods returns the contract functions the actions call, so a descriptor
// can be checked at startup.
func Methods() []string {
	return []string{"balanceOf", "transfer", "mint", "burn", "stake", "unstake", "approve", "pause", "unpause"}
}

// Input carries user-supplied parameters. Which fields matter depends on the
// action; amounts are base-unit integer strings.
type Input struct {
	To         string
	Spender    string
	Amount     string
	Recipients []string
	Amounts    []string
}

// Write is one contract call of a plan.
type Write struct {
	Method string
	Args   []string
}

// Plan is the ordered list of writes an action performs.
type Plan struct {
	Action Action
	Writes []Write
}

type recipientAmount struct {
	To     string `validate:"required,eth_addr"`
	Amount string `validate:"required,uint256"`
}

type amountOnly struct {
	Amount string `validate:"required,uint256"`
}

type spenderAmount struct {
	Spender string `validate:"required,eth_addr"`
	Amount  string `validate:"required,uint256"`
}

type batch struct {
	Recipients []string `validate:"min=1,dive,required,eth_addr"`
	Amounts    []string `validate:"min=1,dive,required,uint256"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("uint256", func(fl validator.FieldLevel) bool {
		_, err := token.ParseUint256(fl.Field().String())
		return err == nil
	})
}

// PlanAction validates in for a and returns the writes to perform. It does
// no I/O.
func PlanAction(a Action, in Input) (Plan, error) {
	p := Plan{Action: a}
	switch a {
	case Transfer, Mint:
		if err := check(recipientAmount{To: in.To, Amount: in.Amount}); err != nil {
			return Plan{}, err
		}
		p.Writes = []Write{{Method: string(a), Args: []string{in.To, in.Amount}}}

	case Burn, Stake, Unstake:
		if err := check(amountOnly{Amount: in.Amount}); err != nil {
			return Plan{}, err
		}
		p.Writes = []Write{{Method: string(a), Args: []string{in.Amount}}}

	case Approve:
		if err := check(spenderAmount{Spender: in.Spender, Amount: in.Amount}); err != nil {
			return Plan{}, err
		}
		p.Writes = []Write{{Method: string(a), Args: []string{in.Spender, in.Amount}}}

	case Multisend:
		if len(in.Recipients) != len(in.Amounts) {
			return Plan{}, fmt.Errorf("%w: %d recipients but %d amounts", ErrValidation, len(in.Recipients), len(in.Amounts))
		}
		if err := check(batch{Recipients: in.Recipients, Amounts: in.Amounts}); err != nil {
			return Plan{}, err
		}
		p.Writes = make([]Write, len(in.Recipients))
		for i := range in.Recipients {
			p.Writes[i] = Write{Method: string(Transfer), Args: []string{in.Recipients[i], in.Amounts[i]}}
		}

	case Pause, Unpause:
		p.Writes = []Write{{Method: string(a)}}

	default:
		return Plan{}, fmt.Errorf("%w: unknown action %q", ErrValidation, a)
	}
	return p, nil
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, len(verrs))
		for i, fe := range verrs {
			msgs[i] = fmt.Sprintf("%s %q fails %s", strings.ToLower(fe.StructField()), fe.Value(), fe.Tag())
		}
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}
