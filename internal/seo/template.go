package seo

import (
	"fmt"
	"regexp"
	"strings"
)

var whitespace = regexp.MustCompile(`\s+`)

// Fallback builds the deterministic templated SEO package for topic.
func Fallback(topic string) Result {
	tags := []string{
		topic,
		topic + " tutorial",
		topic + " guide",
		topic + " tips",
		topic + " 2024",
		"how to " + topic,
		topic + " for beginners",
		topic + " secrets",
		topic + " tricks",
		topic + " mastery",
		"youtube growth",
		"content creator",
		"viral video",
		"youtube algorithm",
		"video marketing",
	}

	hashtags := []string{
		"#" + whitespace.ReplaceAllString(topic, ""),
		"#YouTube",
		"#ContentCreator",
		"#Growth",
		"#2024",
		"#Tutorial",
		"#Tips",
		"#Viral",
		"#Success",
		"#Marketing",
	}

	title := fmt.Sprintf("%s - Complete Guide for 2024 | Boost Your YouTube Growth 🚀", topic)

	description := fmt.Sprintf(`🚀 Master %[1]s with this comprehensive guide! Learn proven strategies to grow your YouTube channel, increase views, and boost engagement. Perfect for content creators looking to dominate in 2024.

🔥 What you'll learn:
• Advanced %[1]s techniques
• YouTube algorithm secrets
• Content optimization strategies
• Engagement boosting tips
• Monetization methods

📈 Transform your channel today! Don't forget to LIKE, SUBSCRIBE, and hit the BELL icon for more amazing content!

⏰ Timestamps:
00:00 Introduction
02:30 Getting Started with %[1]s
05:45 Advanced Techniques
10:20 Pro Tips & Tricks
15:00 Conclusion

%[2]s`, topic, strings.Join(hashtags[:6], " "))

	return Result{
		Tags:        tags,
		Title:       title,
		Description: description,
		Hashtags:    hashtags,
		Source:      SourceTemplate,
	}
}
