package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

var authImportOpts struct {
	token     string
	retailer  string
	branchID  int64
	expiresAt string
}

// readToken prompts for the access token when --token is not given.
var readToken = readPassword

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API credentials",
	Long: `Manage the access token, retailer and branch used for every API call.
Tokens are obtained outside kvsync and imported here.`,
}

var authImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Store an access token obtained elsewhere",
	Args:  cobra.NoArgs,
	RunE:  runAuthImport,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored credentials",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

func init() {
	f := authImportCmd.Flags()
	f.StringVar(&authImportOpts.token, "token", "", "access token (prompted when omitted)")
	f.StringVar(&authImportOpts.retailer, "retailer", "", "retailer (shop) name")
	f.Int64Var(&authImportOpts.branchID, "branch-id", 0, "branch whose invoices are synced")
	f.StringVar(&authImportOpts.expiresAt, "expires-at", "", "token expiry, RFC 3339")
	_ = authImportCmd.MarkFlagRequired("retailer")
	_ = authImportCmd.MarkFlagRequired("branch-id")

	authCmd.AddCommand(authImportCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthImport(cmd *cobra.Command, _ []string) error {
	if credentialService == nil {
		return errors.New("credential service not configured")
	}

	token := authImportOpts.token
	if token == "" {
		cmd.Print("Access token: ")
		token = readToken()
		cmd.Println()
	}

	creds := domain.AccessCredentials{
		AccessToken: token,
		RetailerID:  authImportOpts.retailer,
		BranchID:    authImportOpts.branchID,
		ExpiresAt:   authImportOpts.expiresAt,
	}
	if err := credentialService.Import(commandContext(cmd), creds); err != nil {
		return fmt.Errorf("failed to import credentials: %w", err)
	}

	cmd.Printf("Credentials saved to %s\n", credentialService.Location())
	return nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	if credentialService == nil {
		return errors.New("credential service not configured")
	}

	creds, err := credentialService.Current(commandContext(cmd))
	if err != nil {
		cmd.Println("Run 'kvsync auth import' to store credentials.")
		return fmt.Errorf("failed to load credentials: %w", err)
	}

	cmd.Printf("Location:  %s\n", credentialService.Location())
	cmd.Printf("Retailer:  %s\n", creds.RetailerID)
	cmd.Printf("Branch ID: %d\n", creds.BranchID)
	cmd.Printf("Token:     %s\n", creds.MaskedToken())

	switch exp := creds.Expiry(); {
	case exp.IsZero():
		cmd.Println("Expires:   unknown")
	case creds.IsExpired(time.Now()):
		cmd.Printf("Expires:   %s (expired)\n", exp.Format(time.RFC3339))
	default:
		cmd.Printf("Expires:   %s\n", exp.Format(time.RFC3339))
	}
	return nil
}

func readPassword() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
