// Command chatterbox is a terminal demo client for the chat state core:
// it signs in, tails the contact directory and the notification feed, and
// keeps a local conversation log for typed messages.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chatterbox/blobstore"
	"chatterbox/conversation"
	"chatterbox/dbtypes"
	"chatterbox/docstore"
	"chatterbox/healthz"
	"chatterbox/identity"
	"chatterbox/session"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/golang/glog"
	"golang.org/x/term"
)

var (
	apiKey        = flag.String("api-key", "", "Identity Toolkit web API key.")
	oauthClientID = flag.String("oauth-client-id", "", "OAuth client ID for Google federation (optional).")
	dataProject   = flag.String("data-project", "", "GCP project that contains the application state.")
	storageBucket = flag.String("storage-bucket", "", "Cloud Storage bucket for profile media.")
	debugListen   = flag.String("debug-listen", "127.0.0.1:8001", "Server address:port for debug endpoint.")
)

func main() {
	flag.Parse()

	glog.Infof("flags:")
	glog.Infof("oauth-client-id: %v", *oauthClientID)
	glog.Infof("data-project: %v", *dataProject)
	glog.Infof("storage-bucket: %v", *storageBucket)
	glog.Infof("debug-listen: %v", *debugListen)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := do(ctx); err != nil {
		glog.Exitf("Error: %v", err)
	}
}

func do(ctx context.Context) error {
	fstore, err := firestore.NewClient(ctx, *dataProject)
	if err != nil {
		return fmt.Errorf("while creating Firestore client: %w", err)
	}

	gcs, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("while creating Cloud Storage client: %w", err)
	}

	provider, err := identity.NewToolkit(ctx, *apiKey, *oauthClientID)
	if err != nil {
		return fmt.Errorf("while creating identity client: %w", err)
	}

	health := healthz.New()
	debugServeMux := http.NewServeMux()
	debugServeMux.Handle("/healthz", health)
	debugServeMux.Handle("/readyz", health)
	debugServeMux.HandleFunc("/debug/pprof/", pprof.Index)
	debugServeMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	debugServeMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	debugServeMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	debugServeMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	debugServer := &http.Server{
		Addr:    *debugListen,
		Handler: debugServeMux,

		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	go func() {
		if err := debugServer.ListenAndServe(); err != nil {
			glog.Fatalf("Debug server died: %v", err)
		}
	}()

	health.SetReady(true)

	sess := session.New(provider, docstore.NewFirestore(fstore), blobstore.NewGCS(gcs, *storageBucket), nil)
	cancelStatus := sess.Status().Subscribe(func(st session.Status) {
		switch st.State {
		case session.StateError:
			fmt.Printf("! %s\n", st.Message)
		case session.StateSuccess:
			fmt.Printf("* %s\n", st.Message)
		default:
			glog.Infof("Session state: %v", st.State)
		}
	})
	defer cancelStatus()

	if err := signIn(ctx, sess); err != nil {
		return err
	}

	sess.WatchDirectory(ctx)
	sess.WatchNotifications(ctx)

	cancelDirectory := sess.Directory().State().Subscribe(func(users []*dbtypes.Profile) {
		contacts := directoryLine(users, sess.UID())
		fmt.Printf("contacts: %s\n", contacts)
	})
	defer cancelDirectory()

	cancelFeed := sess.Notifications().State().Subscribe(func(entries []*dbtypes.Notification) {
		for _, e := range entries {
			glog.Infof("notification: [%s] %s %s", e.Timestamp, e.Event, e.Description)
		}
	})
	defer cancelFeed()

	go readLoop(sess)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	<-signalCh

	sess.Logout(ctx)
	glog.Flush()

	return nil
}

// signIn prompts for a credential and drives the session to Authenticated,
// or returns an error after the attempt fails.
func signIn(ctx context.Context, sess *session.Store) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("email: ")
	email, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("while reading email: %w", err)
	}

	fmt.Print("password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("while reading password: %w", err)
	}

	sess.Login(ctx, strings.TrimSpace(email), string(password))

	if st, _ := sess.Status().Get(); st.State != session.StateAuthenticated {
		return fmt.Errorf("sign-in failed: %s", st.Message)
	}
	return nil
}

// readLoop appends each typed line to a local conversation log and echoes
// it back with its assigned timestamp.
func readLoop(sess *session.Store) {
	log := conversation.NewLog()
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		msg := log.AppendText(line)
		fmt.Printf("[%s] you: %s\n", msg.Timestamp, msg.Content)
	}
}

func directoryLine(users []*dbtypes.Profile, selfUID string) string {
	var parts []string
	for _, u := range users {
		if u.UID == selfUID {
			continue
		}
		marker := ""
		if u.Online {
			marker = "*"
		}
		parts = append(parts, u.DisplayName+marker)
	}
	if len(parts) == 0 {
		return "(none)"
	}
	return strings.Join(parts, ", ")
}
