package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("iterate_image",
		mcp.WithPromptDescription("Generate variations of an existing image and lay them out next to it"),
		mcp.WithArgument("imageId",
			mcp.ArgumentDescription("Image to iterate on"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("direction",
			mcp.ArgumentDescription("What should change between variations"),
			mcp.RequiredArgument(),
		),
	), s.handleIterateImagePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("moodboard",
		mcp.WithPromptDescription("Collect reference images on the canvas and generate a combined concept"),
		mcp.WithArgument("theme",
			mcp.ArgumentDescription("Theme of the moodboard"),
			mcp.RequiredArgument(),
		),
	), s.handleMoodboardPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("tidy_canvas",
		mcp.WithPromptDescription("Arrange the canvas so derivation chains read left to right"),
	), s.handleTidyCanvasPrompt)
}

func (s *Server) handleIterateImagePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	imageID := req.Params.Arguments["imageId"]
	direction := req.Params.Arguments["direction"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Iterate on image %s", imageID),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Create three variations of image %s. Direction: %s. Follow these steps:

1. Use list_images to read its size and any earlier prompt
2. If only part of the image matters, use crop_image to focus it first
3. Call generate_image three times with contextImageIds=%s, each prompt a different take on the direction
4. Use set_flow_visible so the derivation arrows are shown
5. Finish with export_snapshot and describe the result`, imageID, direction, imageID),
				},
			},
		},
	}, nil
}

func (s *Server) handleMoodboardPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	theme := req.Params.Arguments["theme"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Moodboard: %s", theme),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a moodboard about "%s".

1. Add reference images with add_image (local paths or URLs)
2. Arrange them with arrange_images
3. Select the strongest references with select_images
4. Call generate_image with a prompt that merges them into one concept
5. Keep the canvas tidy: no overlapping images`, theme),
				},
			},
		},
	}, nil
}

func (s *Server) handleTidyCanvasPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Tidy the canvas",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: `Tidy up the canvas.

1. Read workbench://scene and list_connections
2. Group images by derivation chain: sources first, generated images to their right
3. Move each chain into its own row with move_image, leaving at least 40 units between images
4. Images without connections go in a final row via arrange_images`,
				},
			},
		},
	}, nil
}
