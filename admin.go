package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"blogFeed/crud"
	"blogFeed/domain"
	"blogFeed/logging"
)

// runCommand dispatches an administrative subcommand.
func runCommand(ctx context.Context, services *crud.Services, args []string) error {
	switch args[0] {
	case "group":
		return runGroupCommand(ctx, services.Group, args[1:], os.Stdout)
	default:
		return errors.Errorf("unknown command %q", args[0])
	}
}

// runGroupCommand creates a group, or deletes it when -delete is given:
//
//	blogFeed group -title T -slug s -description d
//	blogFeed group -delete -slug s
func runGroupCommand(ctx context.Context, groups domain.GroupService, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("group", flag.ContinueOnError)
	fs.SetOutput(out)
	title := fs.String("title", "", "Title of the new group.")
	slug := fs.String("slug", "", "Unique url name of the group.")
	description := fs.String("description", "", "What the group is about.")
	del := fs.Bool("delete", false, "Delete the group with the given slug. Its posts are kept without a group.")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *del {
		if err := groups.Delete(ctx, *slug); err != nil {
			return err
		}
		logging.Log.WithField("slug", *slug).Info("group deleted")
		fmt.Fprintf(out, "deleted group %s\n", *slug)
		return nil
	}

	group := &domain.Group{
		Title:       *title,
		Slug:        *slug,
		Description: *description,
	}
	if err := groups.Create(ctx, group); err != nil {
		return err
	}
	logging.Log.WithField("slug", group.Slug).Info("group created")
	fmt.Fprintf(out, "created group %s (%d)\n", group.Slug, group.ID)
	return nil
}
