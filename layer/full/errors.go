package full

import "github.com/pkg/errors"

func errSize(in, out int) error {
	return errors.Errorf("full layer needs positive sizes, got %d -> %d", in, out)
}
