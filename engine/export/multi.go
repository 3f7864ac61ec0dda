package export

import (
	"context"
	"errors"

	"github.com/WessleyAI/threadsnap/engine/thread"
)

type multiSaver []thread.Saver

// Multi fans a document out to every saver in order. All savers run even
// when one fails; the errors are joined.
func Multi(savers ...thread.Saver) thread.Saver {
	if len(savers) == 1 {
		return savers[0]
	}
	return multiSaver(savers)
}

func (m multiSaver) Save(ctx context.Context, data []byte, filename, mimeType string) error {
	var errs []error
	for _, s := range m {
		if err := s.Save(ctx, data, filename, mimeType); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
