// Command privacy-cli is a small demo front-end for the toolkit: it wires
// up all four adapters against the token registry and router, and exposes
// note encode/decode and a router dry-run as flag-driven subcommands, in
// the style of the teacher's api-test CLI (switch-dispatched subcommands,
// flag.NewFlagSet per verb, plain stdout output).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"

	"github.com/privacycash/toolkit/adapter"
	"github.com/privacycash/toolkit/adapters/mpcadapter"
	"github.com/privacycash/toolkit/adapters/poolpadapter"
	"github.com/privacycash/toolkit/adapters/remoteapi"
	"github.com/privacycash/toolkit/adapters/zkadapter"
	"github.com/privacycash/toolkit/ecdh"
	"github.com/privacycash/toolkit/note"
	"github.com/privacycash/toolkit/router"
	"github.com/privacycash/toolkit/tokenregistry"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "note-create":
		noteCreate(args)
	case "note-decode":
		noteDecode(args)
	case "route":
		route(args)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Print(`Usage: privacy-cli <command> [options]

Commands:
  note-create  -amount 5 -token SOL           generate and print an encoded deposit note
  note-decode  -note <encoded>                decode and print a note's fields
  route        -token USDC -amount 100 -privacy amount-hidden [-max-fee 2]
                                               run the router against all four adapters

  help                                        print this message
`)
}

func noteCreate(args []string) {
	fs := flag.NewFlagSet("note-create", flag.ExitOnError)
	amount := fs.Float64("amount", 0, "amount in human units")
	token := fs.String("token", "SOL", "token symbol")
	fs.Parse(args)

	n, err := note.GenerateDepositNote(*amount, *token)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	encoded, err := note.EncodeNote(n)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Println(encoded)
}

func noteDecode(args []string) {
	fs := flag.NewFlagSet("note-decode", flag.ExitOnError)
	encoded := fs.String("note", "", "encoded note string")
	fs.Parse(args)

	n, err := note.DecodeNote(*encoded)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Printf("commitment:      %s\n", n.Commitment.Hex())
	fmt.Printf("nullifier_hash:  %s\n", n.NullifierHash.Hex())
	fmt.Printf("amount:          %v\n", n.Amount)
	fmt.Printf("token:           %s\n", n.Token)
	fmt.Printf("timestamp_ms:    %d\n", n.TimestampMs)
	fmt.Printf("verified:        %v\n", note.VerifyNote(n))
}

func route(args []string) {
	fs := flag.NewFlagSet("route", flag.ExitOnError)
	token := fs.String("token", "USDC", "token symbol")
	amount := fs.Float64("amount", 0, "amount in human units")
	privacy := fs.String("privacy", "amount-hidden", "none | amount-hidden | fully-private")
	maxFee := fs.Float64("max-fee", 0, "maximum acceptable fee; 0 means unset")
	fs.Parse(args)

	r := buildRouter()

	criteria := router.SelectionCriteria{
		PrivacyLevel: adapter.PrivacyLevel(*privacy),
		Token:        *token,
		Amount:       *amount,
	}
	if *maxFee > 0 {
		criteria.MaxFee = maxFee
	}

	result, err := r.Select(context.Background(), criteria)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	fmt.Printf("recommended:  %s\n", result.Recommended)
	fmt.Printf("fee:          %.4f\n", result.Estimate.Fee)
	fmt.Printf("latency_ms:   %d\n", result.Estimate.LatencyMS)
	fmt.Printf("score:        %d\n", result.Score)
	fmt.Printf("alternatives: %v\n", result.Alternatives)
	fmt.Println("explanation:")
	for _, reason := range result.Explanation {
		fmt.Printf("  - %s\n", reason)
	}
}

// buildRouter registers all four adapters against a demo token registry,
// mirroring the wiring an application would do at startup.
func buildRouter() *router.Router {
	registry := tokenregistry.New()
	registry.Register(tokenregistry.TokenInfo{Symbol: "SOL", Decimals: 9})
	registry.Register(tokenregistry.TokenInfo{Symbol: "USDC", Decimals: 6})

	ctx := context.Background()
	r := router.New()

	remote := remoteapi.New(remoteapi.Config{BaseURL: "https://shadowwire.example"})
	_ = remote.Initialize(ctx, nil, nil)
	r.Register(remote)

	mxeKeys, _ := ecdh.GenerateKeyPair()
	mpc := mpcadapter.New(mxeKeys.Public, registry)
	_ = mpc.Initialize(ctx, nil, nil)
	r.Register(mpc)

	zk := zkadapter.New()
	_ = zk.Initialize(ctx, nil, nil)
	r.Register(zk)

	pool := poolpadapter.New(solana.PublicKey{}, zk, nil)
	_ = pool.Initialize(ctx, nil, nil)
	r.Register(pool)

	return r
}
