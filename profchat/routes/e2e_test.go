package routes

import (
	"os"
	"testing"

	"profchat/profchat/config"
	"profchat/profchat/middlewares"

	"github.com/golang-jwt/jwt/v5"
	"github.com/playwright-community/playwright-go"
)

// TestChatPageInBrowser drives the embedded page with a real browser. It needs
// installed playwright browsers, so it only runs with PROFCHAT_E2E=1.
func TestChatPageInBrowser(t *testing.T) {
	if os.Getenv("PROFCHAT_E2E") != "1" {
		t.Skip("set PROFCHAT_E2E=1 to run browser tests")
	}

	backend := &stubBackend{fragments: []string{"**Dr. A**", " - clear lectures"}}
	srv := newTestServer(t, backend, nil, false)

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("could not start playwright: %v", err)
	}
	defer pw.Stop()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(true)})
	if err != nil {
		t.Fatalf("could not launch browser: %v", err)
	}
	defer browser.Close()

	page, err := browser.NewPage()
	if err != nil {
		t.Fatalf("could not create page: %v", err)
	}
	if _, err := page.Goto(srv.URL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		t.Fatalf("could not open chat page: %v", err)
	}

	expect := playwright.NewPlaywrightAssertions(5000)
	assistant := page.Locator(".message.assistant")

	if err := expect.Locator(assistant.First()).ToContainText("Rate My Professor"); err != nil {
		t.Errorf("welcome message: %v", err)
	}

	send := func(text string) {
		t.Helper()
		if err := page.Locator("#input").Fill(text); err != nil {
			t.Fatalf("fill: %v", err)
		}
		if err := page.Locator("#send").Click(); err != nil {
			t.Fatalf("click: %v", err)
		}
	}

	send("hello")
	if err := expect.Locator(assistant.Last()).ToHaveText(greetingReply); err != nil {
		t.Errorf("greeting reply: %v", err)
	}

	if err := expect.Locator(page.Locator("#send")).ToBeEnabled(); err != nil {
		t.Fatalf("send button stayed disabled: %v", err)
	}
	send("Who teaches CS211?")
	if err := expect.Locator(assistant.Last().Locator("strong")).ToHaveText("Dr. A"); err != nil {
		t.Errorf("formatted answer: %v", err)
	}
	if err := expect.Locator(assistant.Last().Locator("li")).ToHaveText("clear lectures"); err != nil {
		t.Errorf("formatted list item: %v", err)
	}
	if err := expect.Locator(assistant).ToHaveCount(3); err != nil {
		t.Errorf("assistant bubbles: %v", err)
	}
}

// TestChatPageSignIn checks the header and the sign-in lock when sign-in is required.
func TestChatPageSignIn(t *testing.T) {
	if os.Getenv("PROFCHAT_E2E") != "1" {
		t.Skip("set PROFCHAT_E2E=1 to run browser tests")
	}

	verifier, _ := middlewares.NewVerifier(config.Config{AuthJWTSecret: "s3cret"})
	srv := newTestServer(t, &stubBackend{}, verifier, true)

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("could not start playwright: %v", err)
	}
	defer pw.Stop()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(true)})
	if err != nil {
		t.Fatalf("could not launch browser: %v", err)
	}
	defer browser.Close()

	expect := playwright.NewPlaywrightAssertions(5000)

	// anonymous: sign-in prompt instead of the composer
	anon, err := browser.NewPage()
	if err != nil {
		t.Fatalf("could not create page: %v", err)
	}
	if _, err := anon.Goto(srv.URL); err != nil {
		t.Fatalf("could not open chat page: %v", err)
	}
	if err := expect.Locator(anon.Locator("#signin")).ToBeVisible(); err != nil {
		t.Errorf("sign-in prompt: %v", err)
	}
	if err := expect.Locator(anon.Locator("#composer")).ToBeHidden(); err != nil {
		t.Errorf("composer for anonymous viewer: %v", err)
	}

	// signed in: greeting with the first name and a sign-out link
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "name": "Ada Lovelace"}).SignedString([]byte("s3cret"))
	bctx, err := browser.NewContext()
	if err != nil {
		t.Fatalf("could not create context: %v", err)
	}
	defer bctx.Close()
	if err := bctx.AddCookies([]playwright.OptionalCookie{{
		Name:  middlewares.SessionCookie,
		Value: token,
		URL:   playwright.String(srv.URL),
	}}); err != nil {
		t.Fatalf("could not set session cookie: %v", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		t.Fatalf("could not create page: %v", err)
	}
	if _, err := page.Goto(srv.URL); err != nil {
		t.Fatalf("could not open chat page: %v", err)
	}
	if err := expect.Locator(page.Locator("#viewer-name")).ToHaveText("Welcome Ada"); err != nil {
		t.Errorf("viewer header: %v", err)
	}
	if err := expect.Locator(page.Locator("#signout")).ToBeVisible(); err != nil {
		t.Errorf("sign-out link: %v", err)
	}
	if err := expect.Locator(page.Locator("#composer")).ToBeVisible(); err != nil {
		t.Errorf("composer for signed in viewer: %v", err)
	}
}
