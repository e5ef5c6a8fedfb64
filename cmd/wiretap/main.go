package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/trunk-metrics/internal/genesys"
	"github.com/sweeney/trunk-metrics/internal/notify"
)

func main() {
	region := flag.String("region", "us-east-1", "Genesys Cloud region")
	clientID := flag.String("client-id", os.Getenv("GENESYS_CLIENT_ID"), "OAuth client ID")
	clientSecret := flag.String("client-secret", os.Getenv("GENESYS_CLIENT_SECRET"), "OAuth client secret")
	trunks := flag.String("trunks", "", "Comma-separated trunk IDs to subscribe to")
	outDir := flag.String("outdir", "testdata/captures", "Output directory for captures")
	sanitize := flag.String("sanitize", "", "Sanitize a capture file in-place (keeps .bak)")
	flag.Parse()

	if *sanitize != "" {
		if err := sanitizeFile(*sanitize); err != nil {
			fmt.Fprintf(os.Stderr, "sanitize error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("sanitized:", *sanitize)
		return
	}

	if *clientID == "" || *clientSecret == "" {
		fmt.Fprintln(os.Stderr, "error: -client-id and -client-secret are required")
		flag.Usage()
		os.Exit(1)
	}
	trunkIDs := splitTrunks(*trunks)
	if len(trunkIDs) == 0 {
		fmt.Fprintln(os.Stderr, "error: -trunks is required")
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := capture(ctx, *region, *clientID, *clientSecret, trunkIDs, *outDir); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func splitTrunks(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}

func capture(ctx context.Context, region, clientID, clientSecret string, trunkIDs []string, outDir string) error {
	client := genesys.NewClient(genesys.Options{
		Region:       region,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})

	tok, err := client.Authenticate(ctx)
	if err != nil {
		return err
	}
	ch, err := client.ProvisionChannel(ctx, tok)
	if err != nil {
		return err
	}
	fmt.Printf("channel %s\nconnecting to %s...\n", ch.ID, ch.ConnectURI)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, ch.ConnectURI, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	sub, err := notify.BuildSubscribe("wiretap", trunkIDs)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		return fmt.Errorf("sending subscribe: %w", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	filename := filepath.Join(outDir, time.Now().Format("20060102-150405")+".raw")
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer f.Close()

	fmt.Printf("writing to %s\n", filename)
	fmt.Println("streaming frames (ctrl+c to stop)...")

	// One frame per line so fixtures can be replayed line by line.
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		line := strings.ReplaceAll(string(data), "\n", " ")
		fmt.Println(line)
		if _, err := f.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("write: %w", err)
		}
	}
}

var (
	tokenPattern  = regexp.MustCompile(`(?i)("access_token"\s*:\s*")[^"]+`)
	bearerPattern = regexp.MustCompile(`(?i)(Bearer\s+)\S+`)
	phonePattern  = regexp.MustCompile(`\b\+?1?\d{10}\b`)
	secretPattern = regexp.MustCompile(`(?i)("client_secret"\s*:\s*")[^"]+`)
)

func sanitizeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Create backup
	bakPath := path + ".bak"
	if err := os.WriteFile(bakPath, data, 0o644); err != nil {
		return fmt.Errorf("creating backup: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		line = tokenPattern.ReplaceAllString(line, "${1}REDACTED")
		line = secretPattern.ReplaceAllString(line, "${1}REDACTED")
		line = bearerPattern.ReplaceAllString(line, "${1}REDACTED")

		// Redact phone numbers in caller fields; trunk UUIDs stay as-is
		// so fixtures remain correlatable.
		if strings.Contains(line, "caller") || strings.Contains(line, "Caller") {
			line = phonePattern.ReplaceAllString(line, "15550001234")
		}

		lines[i] = line
	}

	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644)
}
