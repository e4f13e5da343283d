package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"review-workflow-api/client"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	app := &cli.App{
		Name:  "reviewctl",
		Usage: "operate the review workflow API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Value:   "http://localhost:8080",
				EnvVars: []string{"REVIEW_API_URL"},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "bearer token",
				EnvVars: []string{"REVIEW_API_TOKEN"},
			},
		},
		Commands: []*cli.Command{
			cmdStatus,
			cmdCheck,
			cmdAssign,
			cmdApprove,
			cmdReject,
			cmdReRequest,
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func apiClient(cctx *cli.Context) *client.Client {
	return client.New(cctx.String("api-url"), cctx.String("token"))
}

var cmdStatus = &cli.Command{
	Name:      "status",
	Usage:     "print the review status of many documents",
	ArgsUsage: "<documentId>...",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "content-type", Required: true},
		&cli.StringFlag{Name: "locale", Value: "en"},
		&cli.DurationFlag{Name: "window", Value: client.DefaultStatusWindow},
	},
	Action: func(cctx *cli.Context) error {
		ids := cctx.Args().Slice()
		if len(ids) == 0 {
			return fmt.Errorf("at least one document id is required")
		}
		loader := client.NewStatusLoader(apiClient(cctx), cctx.Duration("window"), client.DefaultStatusMaxWait)

		statuses := make([]string, len(ids))
		g, ctx := errgroup.WithContext(cctx.Context)
		for i, id := range ids {
			i, id := i, id
			g.Go(func() error {
				status, err := loader.Load(ctx, cctx.String("content-type"), cctx.String("locale"), id)
				if err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
				statuses[i] = "none"
				if status != nil {
					statuses[i] = *status
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		for i, id := range ids {
			fmt.Printf("%s\t%s\n", id, statuses[i])
		}
		return nil
	},
}

var cmdCheck = &cli.Command{
	Name:      "check",
	Usage:     "evaluate the publish gate for a document locale",
	ArgsUsage: "<contentType> <documentId> <locale>",
	Action: func(cctx *cli.Context) error {
		if cctx.Args().Len() != 3 {
			return fmt.Errorf("expected <contentType> <documentId> <locale>")
		}
		args := cctx.Args()
		check, err := apiClient(cctx).PublishCheck(cctx.Context, args.Get(0), args.Get(1), args.Get(2))
		if err != nil {
			return err
		}
		if check.Allowed {
			fmt.Println("allow")
			return nil
		}
		fmt.Printf("%s: %s\n", check.Reason, check.Message)
		return cli.Exit("", 2)
	},
}

var cmdAssign = &cli.Command{
	Name:      "assign",
	Usage:     "request a review",
	ArgsUsage: "<contentType> <documentId> <locale>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "reviewer", Required: true},
		&cli.StringFlag{Name: "comment"},
	},
	Action: func(cctx *cli.Context) error {
		if cctx.Args().Len() != 3 {
			return fmt.Errorf("expected <contentType> <documentId> <locale>")
		}
		args := cctx.Args()
		review, err := apiClient(cctx).Assign(cctx.Context, client.AssignRequest{
			AssignedContentType: args.Get(0),
			AssignedDocumentID:  args.Get(1),
			Locale:              args.Get(2),
			AssignedTo:          cctx.Int("reviewer"),
			Comments:            cctx.String("comment"),
		})
		if err != nil {
			return err
		}
		return printJSON(review)
	},
}

var cmdApprove = &cli.Command{
	Name:      "approve",
	ArgsUsage: "<reviewId> <locale>",
	Flags:     []cli.Flag{&cli.StringFlag{Name: "comment"}},
	Action: func(cctx *cli.Context) error {
		if cctx.Args().Len() != 2 {
			return fmt.Errorf("expected <reviewId> <locale>")
		}
		review, err := apiClient(cctx).Approve(cctx.Context, cctx.Args().Get(0), cctx.Args().Get(1), cctx.String("comment"))
		if err != nil {
			return err
		}
		return printJSON(review)
	},
}

var cmdReject = &cli.Command{
	Name:      "reject",
	ArgsUsage: "<reviewId> <locale> <reason...>",
	Action: func(cctx *cli.Context) error {
		if cctx.Args().Len() < 3 {
			return fmt.Errorf("expected <reviewId> <locale> <reason...>")
		}
		args := cctx.Args().Slice()
		review, err := apiClient(cctx).Reject(cctx.Context, args[0], args[1], strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		return printJSON(review)
	},
}

var cmdReRequest = &cli.Command{
	Name:      "re-request",
	ArgsUsage: "<reviewId> <locale> <comment...>",
	Action: func(cctx *cli.Context) error {
		if cctx.Args().Len() < 3 {
			return fmt.Errorf("expected <reviewId> <locale> <comment...>")
		}
		args := cctx.Args().Slice()
		ctx, cancel := context.WithTimeout(cctx.Context, 30*time.Second)
		defer cancel()
		review, err := apiClient(cctx).ReRequest(ctx, args[0], args[1], strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		return printJSON(review)
	},
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
