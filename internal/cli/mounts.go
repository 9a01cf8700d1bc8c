package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/eapache/queue"
	"github.com/javanstorm/guestshell/pkg/guestfs"
)

// mountRequest is one -m dev[:mnt] option.
type mountRequest struct {
	device     string
	mountpoint string
}

// parseMountSpecs parses -m options into a FIFO queue, preserving the order
// they were given so that parent mountpoints are mounted first.
func parseMountSpecs(specs []string) (*queue.Queue, error) {
	q := queue.New()
	for _, spec := range specs {
		device, mountpoint, found := strings.Cut(spec, ":")
		if !found || mountpoint == "" {
			mountpoint = "/"
		}
		if device == "" {
			return nil, fmt.Errorf("invalid mount %q: expecting dev[:mnt]", spec)
		}
		q.Add(mountRequest{device: device, mountpoint: mountpoint})
	}
	return q, nil
}

func mountAll(ctx context.Context, g *guestfs.Handle, q *queue.Queue) error {
	for q.Length() > 0 {
		req := q.Remove().(mountRequest)
		if err := g.Mount(ctx, req.device, req.mountpoint); err != nil {
			return err
		}
	}
	return nil
}
