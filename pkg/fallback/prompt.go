package fallback

import (
	"fmt"
	"strings"
)

// PromptVersion は以下のプロンプト群の版です。
const PromptVersion = "v1"

// DescribePosePrompt はポーズ写真から再現用の詳細な説明文を得るための指示文です。
const DescribePosePrompt = `Describe this photo in precise detail so that it can be recreated with a different person.
Cover:
- Body pose: posture, head tilt, arm and hand positions, leg positions, weight distribution
- Facial expression and gaze direction
- Outfit: every garment, colors, materials, accessories
- Setting: location, background elements, time of day, lighting direction and quality
- Camera: angle, distance, framing, lens feel, depth of field

Do not describe the person's facial features, skin tone or hair. Respond with plain descriptive text only.`

// identityDirectives は参照写真の人物をそのまま保つための指示です。
const identityDirectives = `IDENTITY PRESERVATION (highest priority):
- The person in the provided photo is the subject. Keep their face exactly as it is.
- Preserve facial structure, proportions, eye shape and color, nose, lips and jawline exactly.
- Preserve skin tone and skin texture, including pores, freckles, moles and marks.
- Preserve hairstyle, hair color and hairline exactly.
- Do not beautify, smooth, slim, de-age or otherwise alter the face.`

// qualityDirectives は出力形式に関する指示です。
const qualityDirectives = `OUTPUT REQUIREMENTS:
- Produce ONE single, unified photograph of one scene.
- Do NOT produce a collage, split-screen, grid or side-by-side composite.
- Photorealistic, natural lighting consistent with the scene, sharp focus on the subject.`

// BuildPrompt はポーズの説明文を埋め込んだ再生成用の指示文を組み立てます。
// 外部呼び出しはなく、同じ入力には常に同じ文字列を返します。
func BuildPrompt(poseDescription string) (string, error) {
	desc := strings.TrimSpace(poseDescription)
	if desc == "" {
		return "", fmt.Errorf("pose description must not be empty")
	}

	var b strings.Builder
	b.WriteString("Recreate the following scene using the person in the provided photo.\n\n")
	b.WriteString("SCENE TO RECREATE:\n")
	b.WriteString(desc)
	b.WriteString("\n\n")
	b.WriteString(identityDirectives)
	b.WriteString("\n\n")
	b.WriteString(qualityDirectives)
	return b.String(), nil
}
