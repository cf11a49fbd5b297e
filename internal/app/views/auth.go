package views

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/R3E-Network/storefront/internal/app"
	sferrors "github.com/R3E-Network/storefront/internal/errors"
)

// AuthMode selects the form variant.
type AuthMode int

const (
	ModeLogin AuthMode = iota
	ModeRegister
)

// AuthForm collects credentials and shows failures as an inline banner.
type AuthForm struct {
	c      Container
	styles Styles

	Mode     AuthMode
	Email    string
	Password string
	FullName string

	lc     lifecycle
	snap   app.Snapshot
	banner string
}

// NewAuthForm builds a form in mode.
func NewAuthForm(c Container, mode AuthMode) *AuthForm {
	return &AuthForm{c: c, styles: DefaultStyles(), Mode: mode}
}

// Mount subscribes so the form can show who is signed in.
func (f *AuthForm) Mount(context.Context) error {
	gen := f.lc.begin()
	f.lc.apply(gen, func() { f.snap = f.c.Snapshot() })
	f.lc.subscribe(f.c, func(s app.Snapshot) {
		f.lc.apply(gen, func() { f.snap = s })
	})
	return nil
}

// Unmount drops the subscription.
func (f *AuthForm) Unmount() { f.lc.end() }

// Submit sends the form. On failure the banner carries the message and the
// password is cleared; on success the form is reset.
func (f *AuthForm) Submit(ctx context.Context) sferrors.Result {
	var res sferrors.Result
	if f.Mode == ModeRegister {
		res = f.c.Register(ctx, f.Email, f.Password, f.FullName)
	} else {
		res = f.c.Login(ctx, f.Email, f.Password)
	}

	f.lc.mu.Lock()
	defer f.lc.mu.Unlock()
	if !f.lc.mounted {
		return res
	}
	f.Password = ""
	if res.Success {
		f.banner = ""
		f.Email, f.FullName = "", ""
	} else {
		f.banner = res.Error
	}
	return res
}

// Banner returns the inline error, if any.
func (f *AuthForm) Banner() string {
	f.lc.mu.Lock()
	defer f.lc.mu.Unlock()
	return f.banner
}

// Render writes the form.
func (f *AuthForm) Render(w io.Writer) error {
	f.lc.mu.Lock()
	snap, banner := f.snap, f.banner
	email, name := f.Email, f.FullName
	f.lc.mu.Unlock()

	if snap.User != nil {
		_, err := fmt.Fprintf(w, "Signed in as %s <%s>\n",
			f.styles.Bold.Render(snap.User.DisplayName()), snap.User.Email)
		return err
	}

	var sb strings.Builder
	title := "Sign in"
	if f.Mode == ModeRegister {
		title = "Create account"
	}
	sb.WriteString(f.styles.Title.Render(title) + "\n")
	if banner != "" {
		sb.WriteString(f.styles.Banner.Render("! "+banner) + "\n")
	}
	if f.Mode == ModeRegister {
		fmt.Fprintf(&sb, "Full name: %s\n", name)
	}
	fmt.Fprintf(&sb, "Email: %s\n", email)
	sb.WriteString("Password: ********\n")
	_, err := io.WriteString(w, f.styles.Card.Render(strings.TrimRight(sb.String(), "\n"))+"\n")
	return err
}
