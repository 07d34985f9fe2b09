package probe

import (
	"context"

	"github.com/distatus/battery"

	"webqa-probe/internal/observe"
)

// BatteryProbe samples the charge level of the first battery. Desktops
// and CI hosts usually have none; the family is then omitted.
type BatteryProbe struct{}

func (p *BatteryProbe) Name() string { return "battery" }

func (p *BatteryProbe) Available() bool {
	bats, err := battery.GetAll()
	return err == nil && len(bats) > 0
}

func (p *BatteryProbe) Sample(ctx context.Context) (observe.Fields, error) {
	bats, err := battery.GetAll()
	if err != nil {
		return nil, err
	}
	if len(bats) == 0 {
		return observe.Fields{}, nil
	}
	b := bats[0]
	fields := observe.Fields{}
	if b.Full > 0 {
		fields["battery_percent"] = b.Current / b.Full * 100
	}
	return fields, nil
}
