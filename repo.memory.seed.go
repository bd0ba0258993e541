package main

import "time"

// SeedBooks returns the books the catalog starts with.
func SeedBooks(now time.Time) []Book {
	return []Book{
		{
			ID:            "1",
			Title:         "The DevOps Handbook",
			Author:        "Gene Kim",
			ISBN:          "978-1942788003",
			PublishedYear: 2016,
			Genre:         "Technology",
			Description:   "A comprehensive guide to DevOps practices and principles.",
			Price:         29.99,
			Stock:         15,
			CreatedAt:     now,
		},
		{
			ID:            "2",
			Title:         "Kubernetes in Action",
			Author:        "Marko Luksa",
			ISBN:          "978-1617293726",
			PublishedYear: 2017,
			Genre:         "Technology",
			Description:   "Learn Kubernetes from the ground up.",
			Price:         39.99,
			Stock:         8,
			CreatedAt:     now,
		},
		{
			ID:            "3",
			Title:         "Terraform: Up & Running",
			Author:        "Yevgeniy Brikman",
			ISBN:          "978-1492046905",
			PublishedYear: 2019,
			Genre:         "Technology",
			Description:   "Infrastructure as Code with Terraform.",
			Price:         34.99,
			Stock:         12,
			CreatedAt:     now,
		},
	}
}
