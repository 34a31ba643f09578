package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/dmitrymomot/flipperbot/internal/flips"
	"github.com/dmitrymomot/flipperbot/internal/verification"
)

const (
	colorSuccess = 0x00ff00
	colorError   = 0xff0000
	colorInfo    = 0x0000ff
	colorFlip    = 0xffa500
)

const (
	verifyButtonID = "verify_button"
	qaButtonID     = "qa_button"
)

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func welcomeEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "🎮 Welcome to FlipperBot!",
		Description: "Welcome to our community! To get started:\n\n" +
			"1️⃣ Click the **Verify** button to authenticate your account\n" +
			"2️⃣ Check the **Q&A** section for helpful information\n" +
			"3️⃣ Once verified, you'll get access to all features!",
		Color:     colorInfo,
		Timestamp: timestamp(),
	}
}

func welcomeButtons() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Verify",
					Style:    discordgo.SuccessButton,
					CustomID: verifyButtonID,
					Emoji:    &discordgo.ComponentEmoji{Name: "✅"},
				},
				discordgo.Button{
					Label:    "Q&A",
					Style:    discordgo.PrimaryButton,
					CustomID: qaButtonID,
					Emoji:    &discordgo.ComponentEmoji{Name: "❓"},
				},
			},
		},
	}
}

func verificationInstructionsEmbed(authURL string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "✅ Account Verification",
		Description: "Please follow these steps to verify your account:\n\n" +
			"1️⃣ **Microsoft Account Login**\n" +
			fmt.Sprintf("• [Click here to login with Microsoft](%s)\n\n", authURL) +
			"2️⃣ **Two-Factor Authentication**\n" +
			"• After Microsoft login, you'll set up 2FA\n" +
			"• Use any authenticator app (Google, Microsoft, etc.)\n\n" +
			"3️⃣ **Completion**\n" +
			"• Once verified, you'll get the Verified role\n" +
			"• Access to all bot features will be unlocked\n\n" +
			"ℹ️ Need help? Click the Q&A button!",
		Color: colorSuccess,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "This verification link will expire in 10 minutes",
		},
	}
}

func otpEnrollmentEmbed(confirmURL string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "🔐 Two-Factor Authentication Setup",
		Description: "Your Microsoft login succeeded. One last step:\n\n" +
			"1️⃣ Scan the attached QR code with any authenticator app\n" +
			"(Google Authenticator, Microsoft Authenticator, etc.)\n\n" +
			"2️⃣ Confirm with the 6-digit code your app shows by opening:\n" +
			fmt.Sprintf("```\n%s\n```\n", confirmURL) +
			"(replace CODE with the digits from your app)\n\n" +
			"ℹ️ Keep this message private; the QR code is your 2FA secret.",
		Color: colorInfo,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "This setup link will expire in 10 minutes",
		},
	}
}

func verificationErrorEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ Verification Error",
		Description: "An error occurred during verification. Please try again later or contact support.",
		Color:       colorError,
	}
}

func verifiedEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "✅ You're Verified!",
		Description: "Your account has been verified. All bot features are now unlocked.",
		Color:       colorSuccess,
		Timestamp:   timestamp(),
	}
}

func qaEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❓ Frequently Asked Questions",
		Description: "Here are some common questions and answers about FlipperBot:",
		Color:       colorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "What is FlipperBot?",
				Value: "FlipperBot is a Discord bot that helps you find profitable flipping opportunities in Hypixel Skyblock. It monitors the auction house and alerts you to potential profits.",
			},
			{
				Name: "How do I get verified?",
				Value: "1. Click the Verify button\n" +
					"2. Login with your Microsoft account\n" +
					"3. Set up 2FA using any authenticator app\n" +
					"4. Wait for verification to complete",
			},
			{
				Name: "What features are available?",
				Value: "• Real-time flip notifications\n" +
					"• Profit calculations\n" +
					"• Custom flip filters\n" +
					"• Market analysis",
			},
			{
				Name:  "Need more help?",
				Value: "If you need additional assistance, please contact our support team or check the documentation.",
			},
		},
	}
}

func auditEmbed(event verification.AuditEvent) *discordgo.MessageEmbed {
	status := "✅ Roles updated"
	color := colorSuccess
	if !event.RolesOK {
		status = "⚠️ Role update failed"
		color = colorError
	}
	return &discordgo.MessageEmbed{
		Title:     "🔐 Verification Completed",
		Color:     color,
		Timestamp: timestamp(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Type", Value: event.Kind, Inline: true},
			{Name: "User", Value: fmt.Sprintf("<@%s>", event.UserID), Inline: true},
			{Name: "Account", Value: event.DisplayName, Inline: true},
			{Name: "Email", Value: event.Email, Inline: true},
			{Name: "Correlation", Value: event.Correlation, Inline: true},
			{Name: "Status", Value: status, Inline: true},
		},
	}
}

func flipEmbed(op flips.Opportunity) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "💰 Profitable Flip Found!",
		Description: fmt.Sprintf("A profitable flip opportunity has been detected for %s!", op.ItemName),
		Color:       colorFlip,
		Timestamp:   timestamp(),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Act fast! Prices may change quickly",
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "💵 Buy Price", Value: fmt.Sprintf("%s coins", formatCoins(op.CurrentPrice)), Inline: true},
			{Name: "📈 Estimated Value", Value: fmt.Sprintf("%s coins", formatCoins(op.EstimatedValue)), Inline: true},
			{Name: "💎 Potential Profit", Value: fmt.Sprintf("%s coins", formatCoins(op.PotentialProfit)), Inline: true},
			{Name: "📊 Profit Percentage", Value: fmt.Sprintf("%.1f%%", op.ProfitPercent), Inline: true},
		},
	}
}

// formatCoins renders 1234567 as "1,234,567".
func formatCoins(v int64) string {
	raw := fmt.Sprintf("%d", v)
	neg := false
	if len(raw) > 0 && raw[0] == '-' {
		neg = true
		raw = raw[1:]
	}
	var out []byte
	for i, ch := range []byte(raw) {
		if i > 0 && (len(raw)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, ch)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
