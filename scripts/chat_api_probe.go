package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url, token string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{} // No timeout, LLM replies can be slow
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func main() {
	color.Cyan("🚀 Starting Journal Chat API Probe\n")

	// 1. Guest login to get a token
	color.Yellow("\n1. Guest Login")
	resp, body, err := sendRequest("POST", "/auth/guest", "", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)

	var loginResp map[string]interface{}
	json.Unmarshal(body, &loginResp)
	prettyPrint(loginResp)

	var token string
	if data, ok := loginResp["data"].(map[string]interface{}); ok {
		if t, ok := data["access_token"].(string); ok {
			token = t
		}
	}
	if token == "" {
		color.Red("No access token in guest login response")
		os.Exit(1)
	}

	// 2. Create a session
	color.Yellow("\n2. Create Session")
	resp, body, err = sendRequest("POST", "/journal/v1/sessions", token, map[string]interface{}{})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)

	var sessionResp map[string]interface{}
	json.Unmarshal(body, &sessionResp)
	prettyPrint(sessionResp)

	var sessionID string
	if data, ok := sessionResp["data"].(map[string]interface{}); ok {
		if id, ok := data["id"].(string); ok {
			sessionID = id
		}
	}

	// 3. Stateless converse (no chatId, nothing persisted)
	color.Yellow("\n3. Stateless Converse")
	resp, body, err = sendRequest("POST", "/chat", token, map[string]interface{}{
		"message": "I had a calm day, mostly reading.",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var converseResp map[string]interface{}
	json.Unmarshal(body, &converseResp)
	prettyPrint(converseResp)

	// 4. Converse into the session (persisted, first message names it)
	color.Yellow("\n4. Converse Into Session")
	resp, body, err = sendRequest("POST", "/chat", token, map[string]interface{}{
		"message": "Work was stressful today and I could not focus.",
		"chatId":  sessionID,
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	json.Unmarshal(body, &converseResp)
	prettyPrint(converseResp)

	// 5. Empty message must be a 400
	color.Yellow("\n5. Empty Message (expect 400)")
	resp, body, err = sendRequest("POST", "/chat", token, map[string]interface{}{
		"message": "   ",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	if resp.StatusCode == http.StatusBadRequest {
		color.Green("Status: %s (as expected)", resp.Status)
	} else {
		color.Red("Status: %s (expected 400)", resp.Status)
	}

	// 6. History should show the user/ai pair and the derived title
	color.Yellow("\n6. Session List + History")
	resp, body, err = sendRequest("GET", "/journal/v1/sessions", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var listResp map[string]interface{}
	json.Unmarshal(body, &listResp)
	prettyPrint(listResp)

	resp, body, err = sendRequest("GET", "/journal/v1/sessions/"+sessionID+"/messages", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var histResp map[string]interface{}
	json.Unmarshal(body, &histResp)
	prettyPrint(histResp)

	// 7. Delete the session
	color.Yellow("\n7. Delete Session")
	resp, _, err = sendRequest("DELETE", "/journal/v1/sessions/"+sessionID, token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)

	color.Cyan("\n✅ Probe finished")
}
