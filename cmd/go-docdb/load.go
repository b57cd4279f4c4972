package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL      string
	loadCount      int
	batchSize      int
	loadCollection string

	loadCmd = &cobra.Command{
		Use:   "load",
		Short: "Insert random users into a running server and time a range query over them",
		Example: `  go-docdb load --count 10000 --collection users
  go-docdb load --count 1000 --batch 100 --url http://localhost:9090`,
		RunE: runLoad,
	}
)

func init() {
	loadCmd.Flags().StringVar(&serverURL, "url", "http://localhost:8080", "server base URL")
	loadCmd.Flags().IntVar(&loadCount, "count", 1000, "number of users to insert")
	loadCmd.Flags().IntVar(&batchSize, "batch", 0, "documents per batch request (0 inserts one at a time)")
	loadCmd.Flags().StringVar(&loadCollection, "collection", "users", "collection to load")

	rootCmd.AddCommand(loadCmd)
}

// loadUser is the document inserted by the load command
type loadUser struct {
	Name  string `json:"name"`
	Age   int    `json:"age"`
	Email string `json:"email"`
}

// randomName generates a capitalized random 6-letter name
func randomName() string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	name := make([]byte, 6)
	for i := range name {
		name[i] = letters[rand.Intn(len(letters))]
	}
	name[0] -= 'a' - 'A'
	return string(name)
}

func randomUser() loadUser {
	name := randomName()
	return loadUser{
		Name:  name,
		Age:   rand.Intn(82) + 18,
		Email: strings.ToLower(name) + "@example.com",
	}
}

func post(client *http.Client, url string, body interface{}) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp, nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	if loadCount <= 0 {
		return fmt.Errorf("count must be greater than 0")
	}
	client := &http.Client{Timeout: 30 * time.Second}
	base := strings.TrimRight(serverURL, "/") + "/collections/" + loadCollection
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Starting load test: inserting %d users into %s\n", loadCount, base)

	start := time.Now()
	success, failed := 0, 0
	reportInterval := max(1, loadCount/10)

	record := func(done, n int, err error) {
		if err != nil {
			failed += n
			logger.Error().Err(err).Int("at", done).Msg("insert failed")
		} else {
			success += n
		}
		if done%reportInterval < n || done == loadCount {
			rate := float64(done) / time.Since(start).Seconds()
			fmt.Fprintf(out, "Progress: %d/%d users (%.1f%%) - Rate: %.1f users/sec - Success: %d, Errors: %d\n",
				done, loadCount, float64(done)/float64(loadCount)*100, rate, success, failed)
		}
	}

	if batchSize > 0 {
		for done := 0; done < loadCount; {
			n := min(batchSize, loadCount-done)
			docs := make(map[string]loadUser, n)
			for i := 0; i < n; i++ {
				docs[fmt.Sprintf("u%08d", done+i)] = randomUser()
			}
			resp, err := post(client, base+"/batch", map[string]interface{}{"documents": docs})
			if err == nil {
				resp.Body.Close()
			}
			done += n
			record(done, n, err)
		}
	} else {
		for i := 1; i <= loadCount; i++ {
			resp, err := post(client, base+"/documents", randomUser())
			if err == nil {
				resp.Body.Close()
			}
			record(i, 1, err)
		}
	}
	totalTime := time.Since(start)

	findStart := time.Now()
	resp, err := post(client, base+"/find?limit=1", map[string]interface{}{"age": map[string]interface{}{"$gte": 90}})
	if err != nil {
		return fmt.Errorf("find failed: %w", err)
	}
	defer resp.Body.Close()
	var page struct {
		Total int `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return fmt.Errorf("failed to decode find response: %w", err)
	}
	findTime := time.Since(findStart)

	fmt.Fprintln(out, "\n"+strings.Repeat("=", 60))
	fmt.Fprintln(out, "LOAD TEST COMPLETE")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "Total users attempted: %d\n", loadCount)
	fmt.Fprintf(out, "Successful inserts:    %d\n", success)
	fmt.Fprintf(out, "Failed inserts:        %d\n", failed)
	fmt.Fprintf(out, "Total time:            %v\n", totalTime)
	fmt.Fprintf(out, "Average rate:          %.2f users/sec\n", float64(loadCount)/totalTime.Seconds())
	fmt.Fprintf(out, "Users aged 90+:        %d (found in %v)\n", page.Total, findTime)

	if failed > 0 {
		return fmt.Errorf("%d inserts failed", failed)
	}
	return nil
}
