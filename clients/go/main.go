// roomboard CLI - command line client for a roomboard server
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eldtechnologies/roomboard/clients/go/roomboard"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	client := roomboard.NewClient(os.Getenv("ROOMBOARD_URL"))
	cmd := os.Args[1]

	switch cmd {
	case "health":
		resp, err := client.Health()
		exitOnError(err)
		printJSON(resp)

	case "rooms":
		rooms, err := client.ListRooms()
		exitOnError(err)
		for _, r := range rooms {
			lock := ""
			if r.IsLocked {
				lock = " [locked]"
			}
			fmt.Printf("  %s  %s%s\n", r.ID, r.Name, lock)
		}

	case "enter":
		requireArgs(3, "enter <room_id> [password]")
		roomID := os.Args[2]
		if len(os.Args) > 3 {
			ok, err := client.VerifyPassword(roomID, os.Args[3])
			exitOnError(err)
			if !ok {
				fmt.Fprintln(os.Stderr, "Incorrect password")
				os.Exit(1)
			}
		}
		room, err := client.GetRoom(roomID)
		exitOnError(err)
		printJSON(room)

	case "read":
		requireArgs(3, "read <room_id>")
		msgs, err := client.GetMessages(os.Args[2])
		exitOnError(err)
		for _, msg := range msgs {
			body := msg.Text
			if msg.FileURL != "" {
				body = fmt.Sprintf("[%s] %s (%s)", msg.FileType, msg.FileName, msg.FileURL)
			}
			if msg.ReplyTo != nil {
				body = fmt.Sprintf("(re %s) %s", shortID(msg.ReplyTo.ID), body)
			}
			fmt.Printf("[%s] %s %s: %s\n", msg.Timestamp, shortID(msg.ID), msg.AnonymousID, body)
		}

	case "post":
		requireArgs(4, "post <room_id> <message> [parent_id]")
		exitOnError(client.SaveIdentity())
		exitOnError(client.PostMessage(os.Args[2], os.Args[3], optionalArg(4)))
		fmt.Println("Posted")

	case "upload":
		requireArgs(4, "upload <room_id> <path> [parent_id]")
		f, err := os.Open(os.Args[3])
		exitOnError(err)
		defer f.Close()
		exitOnError(client.SaveIdentity())
		fileURL, err := client.UploadFile(os.Args[2], filepath.Base(os.Args[3]), f, optionalArg(4))
		exitOnError(err)
		fmt.Printf("Uploaded: %s\n", fileURL)

	case "create":
		requireArgs(3, "create <name> [description] [password]")
		adminLogin(client)
		password := optionalArg(4)
		id, err := client.CreateRoom(roomboard.RoomRequest{
			Name:        os.Args[2],
			Description: optionalArg(3),
			IsLocked:    password != "",
			Password:    password,
		})
		exitOnError(err)
		fmt.Printf("Created: %s\n", id)

	case "delete":
		requireArgs(3, "delete <room_id>")
		adminLogin(client)
		exitOnError(client.DeleteRoom(os.Args[2]))
		fmt.Println("Deleted")

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`roomboard CLI - anonymous room discussion board

Usage: roomboard <command> [options]

Commands:
  rooms                                List rooms
  enter <room> [password]              Show a room, unlocking it first if a password is given
  read <room>                          Read messages from room
  post <room> <message> [parent]       Post message to room
  upload <room> <path> [parent]        Upload a file to room
  create <name> [desc] [password]      Create a room (admin)
  delete <room>                        Delete a room and its messages (admin)
  health                               Check server health

Environment:
  ROOMBOARD_URL        Server URL (default: http://localhost:8080)
  ROOMBOARD_CONFIG     Config directory (default: ~/.roomboard)
  ROOMBOARD_ADMIN_ID   Admin username for admin commands
  ROOMBOARD_ADMIN_PASSWORD`)
}

func adminLogin(client *roomboard.Client) {
	exitOnError(client.AdminLogin(os.Getenv("ROOMBOARD_ADMIN_ID"), os.Getenv("ROOMBOARD_ADMIN_PASSWORD")))
}

func requireArgs(n int, usage string) {
	if len(os.Args) < n {
		fmt.Fprintln(os.Stderr, "Usage: roomboard "+usage)
		os.Exit(1)
	}
}

func optionalArg(i int) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return ""
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
