package config

import "newsshorts/types"

// DefaultFeeds is processed in declared order; earlier feeds win duplicates.
var DefaultFeeds = []types.FeedSource{
	{Name: "The Hindu (National)", URL: "https://www.thehindu.com/news/national/?service=rss"},
	{Name: "The Hindu (Business)", URL: "https://www.thehindu.com/business/?service=rss"},
	{Name: "The Hindu (Sport)", URL: "https://www.thehindu.com/sport/?service=rss"},
	{Name: "The Hindu (Entertainment)", URL: "https://www.thehindu.com/entertainment/?service=rss"},
	{Name: "Indian Express (Politics)", URL: "https://indianexpress.com/section/politics/feed/"},
	{Name: "Indian Express (Business)", URL: "https://indianexpress.com/section/business/feed/"},
	{Name: "Indian Express (Sports)", URL: "https://indianexpress.com/section/sports/feed/"},
	{Name: "Indian Express (Tech)", URL: "https://indianexpress.com/section/technology/feed/"},
	{Name: "Indian Express (Ent)", URL: "https://indianexpress.com/section/entertainment/feed/"},
	{Name: "Times of India", URL: "https://timesofindia.indiatimes.com/rssfeedstopstories.cms"},
	{Name: "Hindustan Times", URL: "https://www.hindustantimes.com/feeds/rss/topnews.xml"},
	{Name: "NDTV (Top Stories)", URL: "https://feeds.feedburner.com/ndtvnews-top-stories"},
	{Name: "Economic Times", URL: "https://economictimes.indiatimes.com/ETtopstories/rssfeeds/1977021501.cms"},
	{Name: "Business Standard", URL: "https://www.business-standard.com/rss/latest.xml"},
	{Name: "LiveMint", URL: "https://www.livemint.com/rss/most-popular"},
	{Name: "India Today", URL: "https://www.indiatoday.in/rss/home"},
	{Name: "News18 (India)", URL: "https://www.news18.com/rss/india.xml"},
	{Name: "Zee News", URL: "https://zeenews.india.com/rss/india-national-news.xml"},
	{Name: "Reuters (India)", URL: "https://www.reuters.com/places/india/rss"},
	{Name: "ANI", URL: "https://www.aninews.in/rss/ani-all-news.xml"},
	{Name: "CNBC TV18", URL: "https://www.cnbctv18.com/rss/rssfeed.xml"},
	{Name: "Financial Express", URL: "https://www.financialexpress.com/feed/"},
	{Name: "The Print", URL: "https://theprint.in/feed/"},
	{Name: "BBC World", URL: "http://feeds.bbci.co.uk/news/world/rss.xml"},
	{Name: "CNN Top Stories", URL: "http://rss.cnn.com/rss/edition.rss"},
	{Name: "Al Jazeera", URL: "https://www.aljazeera.com/xml/rss/all.xml"},
	{Name: "Reuters World", URL: "https://www.reuters.com/world/rss"},
	{Name: "The Guardian", URL: "https://www.theguardian.com/world/rss"},
}
