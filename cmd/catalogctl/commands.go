package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/microcosm-cc/gamecatalog/models"
)

func runCommand(ctx context.Context, cat *models.Catalog, name string, args []string, out io.Writer) error {
	switch name {
	case "ping":
		return ping(ctx, cat, out)
	case "warm":
		return warm(ctx, cat, out)
	case "purge":
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		return purge(ctx, cat, ids, out)
	default:
		return fmt.Errorf("unknown command %q", name)
	}
}

// ping reports on the record store and the cache, failing if either is down
func ping(ctx context.Context, cat *models.Catalog, out io.Writer) error {
	var failed bool

	for _, check := range []struct {
		name string
		ping func(context.Context) error
	}{
		{"database", cat.Records.Ping},
		{"cache", cat.Cache.Ping},
	} {
		if err := check.ping(ctx); err != nil {
			fmt.Fprintf(out, "%s: %v\n", check.name, err)
			failed = true
			continue
		}
		fmt.Fprintf(out, "%s: ok\n", check.name)
	}

	if failed {
		return fmt.Errorf("ping failed")
	}
	return nil
}

// warm populates the list key and every item key through the coordinator
func warm(ctx context.Context, cat *models.Catalog, out io.Writer) error {
	ems, err := cat.Games.List(ctx)
	if err != nil {
		return err
	}

	for _, m := range ems {
		if _, err := cat.Games.Get(ctx, m.ID); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "warmed %d %s\n", len(ems), cat.Games.Collection())
	return nil
}

// purge removes the list key and the item keys for ids. With no ids every
// entity in the record store is purged.
func purge(ctx context.Context, cat *models.Catalog, ids []int64, out io.Writer) error {
	if len(ids) == 0 {
		ems, err := cat.Records.ListAll(ctx)
		if err != nil {
			return err
		}
		for _, m := range ems {
			ids = append(ids, m.ID)
		}
	}

	keys := []string{cat.Games.ListKey()}
	for _, id := range ids {
		keys = append(keys, cat.Games.ItemKey(id))
	}

	for _, key := range keys {
		if err := cat.Cache.Remove(ctx, key); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "purged %d keys\n", len(keys))
	return nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id < 1 {
			return nil, fmt.Errorf("the supplied id ('%s') is not a positive number", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
