package main

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/sha3"

	jwttoken "transcript/internal/jwt_token"
	"transcript/internal/platform/database"
	"transcript/internal/transcript/eventlog"
	"transcript/pkg/domain"
)

func newHashCmd() *cobra.Command {
	var algorithm string

	cmd := &cobra.Command{
		Use:   "hash <file>",
		Short: "Print the fingerprint of a PDF",
		Long:  "Print the 32-byte fingerprint of a file as 0x-prefixed hex, ready for a mint request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			fingerprint, err := fingerprintOf(f, algorithm)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), fingerprint.Hex())
			return nil
		},
	}
	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", "sha256", "Digest: sha256 or keccak256")
	return cmd
}

// fingerprintOf digests r. A zero digest is reserved, so it is refused.
func fingerprintOf(r io.Reader, algorithm string) (domain.PDFHash, error) {
	var h hash.Hash
	switch algorithm {
	case "sha256":
		h = sha256.New()
	case "keccak256":
		h = sha3.NewLegacyKeccak256()
	default:
		return domain.PDFHash{}, fmt.Errorf("unknown algorithm %q (must be sha256 or keccak256)", algorithm)
	}
	if _, err := io.Copy(h, r); err != nil {
		return domain.PDFHash{}, err
	}
	fingerprint, err := domain.PDFHashFromBytes(h.Sum(nil))
	if err != nil {
		return domain.PDFHash{}, err
	}
	if fingerprint.IsZero() {
		return domain.PDFHash{}, fmt.Errorf("digest is zero and cannot be registered")
	}
	return fingerprint, nil
}

func newTokenCmd() *cobra.Command {
	var (
		signingKey string
		issuer     string
		ttl        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <address>",
		Short: "Issue a bearer token for a caller address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if signingKey == "" {
				return fmt.Errorf("signing key is required (--signing-key or JWT_SIGNING_KEY)")
			}
			caller, err := domain.ParseAddress(args[0])
			if err != nil {
				return err
			}
			token, err := jwttoken.NewJWTService(signingKey, issuer).GenerateCallerToken(caller, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	defaultIssuer := os.Getenv("JWT_ISSUER")
	if defaultIssuer == "" {
		defaultIssuer = "transcript-registry"
	}
	cmd.Flags().StringVar(&signingKey, "signing-key", os.Getenv("JWT_SIGNING_KEY"), "HMAC signing key")
	cmd.Flags().StringVar(&issuer, "issuer", defaultIssuer, "Token issuer")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}

func newVerifyLogCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "verify-log",
		Short: "Check the integrity of the stored event chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if databaseURL == "" {
				return fmt.Errorf("database url is required (--database-url or DATABASE_URL)")
			}
			ctx := cmd.Context()
			db, err := database.Open(ctx, database.Config{URL: databaseURL})
			if err != nil {
				return err
			}
			defer db.Close()

			events, err := eventlog.NewPostgresLog(db).All(ctx)
			if err != nil {
				return err
			}
			if err := eventlog.VerifyChain(events); err != nil {
				return fmt.Errorf("event chain is broken: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "event chain intact: %d events\n", len(events))
			return nil
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	return cmd
}
