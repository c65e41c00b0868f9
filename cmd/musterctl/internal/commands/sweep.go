package commands

import (
	"context"
)

type SweepCmd struct{}

func (c *SweepCmd) Run(ctx context.Context, globals *Globals) error {
	st, log, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := newSweeper(st, log).SweepExpired(ctx)
	if err != nil {
		return err
	}
	return globals.print(map[string]int64{"expired": n})
}
