package cmd

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/luminary-app/luminary/internal/authflow"
	"github.com/luminary-app/luminary/internal/errors"
	"github.com/luminary-app/luminary/internal/oauth"
	"github.com/luminary-app/luminary/internal/tui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in, sign out, and inspect the session",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password, or through Google",
	Long: `Sign in to Luminary.

With --google, a browser window completes the sign-in and the token is
handed back to the terminal. Otherwise you are asked for email and password;
unless this device is trusted, a 6-digit code is emailed to you and must be
entered to finish.`,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and erase the stored session",
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a session exists and when it expires",
	RunE:  runAuthStatus,
}

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE:  runAuthRegister,
}

var authVerifyCmd = &cobra.Command{
	Use:   "verify [CODE]",
	Short: "Verify an emailed code for a pending sign-in",
	Long: `Verify the 6-digit code emailed during sign-in.

The interactive login normally collects the code itself; this command exists
for the scripted path, where the challenge email is known out of band.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthVerify,
}

var (
	loginEmail    string
	loginPassword string
	loginGoogle   bool
	loginTrust    bool
	verifyEmail   string
)

func init() {
	authLoginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	authLoginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (prompted when omitted)")
	authLoginCmd.Flags().BoolVar(&loginGoogle, "google", false, "sign in through Google in the browser")
	authLoginCmd.Flags().BoolVar(&loginTrust, "trust", false, "remember this device and skip the code next time")

	authVerifyCmd.Flags().StringVar(&verifyEmail, "email", "", "email the code was sent to")
	authVerifyCmd.Flags().BoolVar(&loginTrust, "trust", false, "remember this device and skip the code next time")
	_ = authVerifyCmd.MarkFlagRequired("email")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authRegisterCmd)
	authCmd.AddCommand(authVerifyCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if a.store.Token() != "" {
		fmt.Println("Already signed in. Run 'luminary auth logout' first to switch accounts.")
		return nil
	}

	if loginGoogle {
		return runGoogleLogin(cmd, a)
	}

	email := loginEmail
	if email == "" {
		email, err = tui.PromptForString(tui.Prompt{Message: "Email", Placeholder: "you@example.com", Required: true})
		if err != nil {
			return err
		}
	}

	password := loginPassword
	if password == "" {
		password, err = tui.PromptForString(tui.Prompt{Message: "Password", Required: true, Password: true})
		if err != nil {
			return err
		}
	}

	outcome, err := a.flow.SubmitLogin(cmd.Context(), email, password)
	if err != nil {
		return err
	}

	if outcome == authflow.LoginAuthenticated {
		fmt.Println("Signed in. This device is trusted; no code was needed.")
		return nil
	}

	return runOTPChallenge(cmd, a)
}

// runOTPChallenge collects and verifies the emailed code, allowing a resend
// when the countdown permits one.
func runOTPChallenge(cmd *cobra.Command, a *app) error {
	fmt.Println("A 6-digit code was sent to your email.")
	countdown := authflow.NewCountdown()

	for {
		code, err := tui.PromptForCode()
		if err != nil {
			return err
		}

		err = a.flow.VerifyOTP(cmd.Context(), code, loginTrust)
		if err == nil {
			fmt.Println("Signed in.")
			return nil
		}

		fmt.Printf("Verification failed: %v\n", errMessage(err))

		if countdown.ResendAllowed() {
			resend, perr := tui.PromptForConfirmation("Request a new code?", countdown.Expired())
			if perr != nil {
				return perr
			}
			if resend {
				if rerr := a.flow.Resend(cmd.Context(), countdown); rerr != nil {
					return rerr
				}
				fmt.Println("A new code is on its way.")
				continue
			}
		}

		retry, perr := tui.PromptForConfirmation("Try entering the code again?", true)
		if perr != nil {
			return perr
		}
		if !retry {
			a.flow.Abandon()
			return err
		}
	}
}

// runGoogleLogin walks the browser-based flow: a loopback listener catches
// the provider redirect and the session is committed from the token it
// carries.
func runGoogleLogin(cmd *cobra.Command, a *app) error {
	listener, err := oauth.New(a.flow, a.logger)
	if err != nil {
		return err
	}
	defer listener.Close()

	fmt.Println("Open this URL in your browser to sign in with Google:")
	fmt.Println()
	fmt.Println("  " + a.api.OAuthLoginURL("google"))
	fmt.Println()
	fmt.Println("Waiting for the browser to finish (redirects to " + listener.RedirectURL() + ")...")

	if err := listener.Wait(cmd.Context()); err != nil {
		return err
	}

	fmt.Println("Signed in.")
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	a.store.Logout()
	fmt.Println("Signed out.")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	token := a.store.Token()
	if token == "" {
		fmt.Println("Not signed in.")
		return nil
	}

	fmt.Println("Signed in.")

	// The token is opaque to the client, but when it happens to be a JWT the
	// expiry claim is worth showing. No signature check: this is display only.
	if exp, ok := tokenExpiry(token); ok {
		if remaining := time.Until(exp); remaining > 0 {
			fmt.Printf("Token expires %s (%s from now).\n", exp.Format(time.RFC1123), remaining.Round(time.Minute))
		} else {
			fmt.Println("Token has expired; the next request will sign you out.")
		}
	}

	user, err := a.api.GetProfile(cmd.Context())
	if err != nil {
		return errors.Wrap(errors.ErrCodeAPIRequest, "session exists but the profile could not be fetched", err)
	}

	fmt.Printf("Account: %s <%s>\n", user.Name, user.Email)
	if user.Role != "" {
		fmt.Printf("Role: %s\n", user.Role)
	}
	return nil
}

func runAuthVerify(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	// The pending challenge lives in process memory during an interactive
	// login; for the scripted path the email re-establishes it here.
	a.store.SetPendingEmail(verifyEmail)

	var code string
	if len(args) == 1 {
		code = args[0]
	} else {
		code, err = tui.PromptForCode()
		if err != nil {
			return err
		}
	}

	if err := a.flow.VerifyOTP(cmd.Context(), code, loginTrust); err != nil {
		return err
	}

	fmt.Println("Signed in.")
	return nil
}

func runAuthRegister(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	name, err := tui.PromptForString(tui.Prompt{Message: "Name", Required: true})
	if err != nil {
		return err
	}
	email, err := tui.PromptForString(tui.Prompt{Message: "Email", Placeholder: "you@example.com", Required: true})
	if err != nil {
		return err
	}
	password, err := tui.PromptForString(tui.Prompt{Message: "Password", Required: true, Password: true})
	if err != nil {
		return err
	}
	confirm, err := tui.PromptForString(tui.Prompt{Message: "Confirm password", Required: true, Password: true})
	if err != nil {
		return err
	}

	// Validated locally before any network call.
	if len(password) < 6 {
		return errors.NewValidationError("password must be at least 6 characters")
	}
	if password != confirm {
		return errors.NewValidationError("passwords do not match")
	}

	if err := a.flow.Register(cmd.Context(), name, email, password); err != nil {
		return err
	}

	fmt.Println("Account created. Run 'luminary auth login' to sign in.")
	return nil
}

// tokenExpiry extracts the exp claim from a JWT-shaped token without
// verifying it.
func tokenExpiry(token string) (time.Time, bool) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// errMessage unwraps the display message from a flow error.
func errMessage(err error) string {
	if lumErr, ok := err.(*errors.LuminaryError); ok {
		return lumErr.Message
	}
	return err.Error()
}
