package main

import (
	"bytes"
	"fmt"
	"log"

	"github.com/spf13/viper"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

func SendMail(recepients []string, subject, body string) error {
	from := viper.GetString("smtp.from_email")
	host := viper.GetString("smtp.host")
	port := viper.GetString("smtp.port")
	username := viper.GetString("smtp.username")
	password := viper.GetString("smtp.password")

	auth := sasl.NewLoginClient(username, password)

	var err error
	for _, recipient := range recepients {
		message := "From: " + from + "\n" +
			"To: " + recipient + "\n" +
			"Subject: " + subject + "\n\n" +
			body

		to := []string{recipient}
		msg := []byte(message)
		reader := bytes.NewReader(msg)
		err = smtp.SendMail(host+":"+port, auth, from, to, reader)
		if err != nil {
			log.Printf("WARN: Failed to send email: %v\n", err)
		}
	}

	return err
}

// NotifyLead emails the operator about an accepted submission. Best effort:
// a delivery failure is logged and never affects the visitor's flow.
func NotifyLead(lead Lead) {
	if !viper.GetBool("smtp.notify_leads") {
		return
	}
	recipient := viper.GetString("smtp.notify_to")
	if recipient == "" {
		return
	}

	subject := fmt.Sprintf("New sign-up: %s (%s)", lead.Name, lead.Company)
	body := fmt.Sprintf(
		"A new visitor signed up.\n\n"+
			"Name: %s\nEmail: %s\nCompany: %s\nPurpose: %s\nProperty: %s\nSubmitted: %s\n",
		lead.Name, lead.Email, lead.Company, lead.Purpose, lead.Property, lead.Timestamp)

	SendMail([]string{recipient}, subject, body)
}
