package templates

import (
	"fmt"
	"strings"

	"farewatch-service/internal/domain/entity"
)

// MSG_HEADER is the first line of every deal notification
const MSG_HEADER = "✈️ Fare alert: %s → %s"

// RenderDealMessage renders the channel-appropriate text for a deal
func RenderDealMessage(alert *entity.Alert, deal *entity.Deal) string {
	var b strings.Builder

	fmt.Fprintf(&b, MSG_HEADER, alert.Origin, alert.Destination)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s %.2f on %s",
		deal.Fare.Currency,
		deal.Fare.Price,
		deal.Fare.Date.Format("Mon, 02 Jan 2006"))
	if deal.Fare.FlightNumber != "" {
		fmt.Fprintf(&b, " (flight %s", deal.Fare.FlightNumber)
		if deal.Fare.FareClass != "" {
			fmt.Fprintf(&b, ", %s", deal.Fare.FareClass)
		}
		b.WriteString(")")
	}
	b.WriteString("\n")

	if deal.IsCheapestOfMonth {
		fmt.Fprintf(&b, "Cheapest fare found for %s\n", alert.YearMonth)
	}

	if alert.BestPriceMode() {
		b.WriteString("Best-price watch: no ceiling set\n")
	} else {
		fmt.Fprintf(&b, "Under your limit of %s %.2f\n", alert.Currency, *alert.MaxPrice)
	}

	if len(deal.Extras) > 0 {
		b.WriteString("\nAlso in range:\n")
		for _, fare := range deal.Extras {
			fmt.Fprintf(&b, "• %s %.2f on %s", fare.Currency, fare.Price, fare.Date.Format("02 Jan"))
			if fare.FlightNumber != "" {
				fmt.Fprintf(&b, " (%s)", fare.FlightNumber)
			}
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// RenderLinkConfirmation renders the bot reply after a successful link
func RenderLinkConfirmation(webEmail string) string {
	if webEmail == "" {
		return "✅ Your account is now linked. Alerts from both apps show up in one place."
	}
	return fmt.Sprintf("✅ Linked to %s. Alerts from both apps show up in one place.", webEmail)
}
